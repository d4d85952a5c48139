package emby

import "context"

// Library is a media library folder on the server.
type Library struct {
	ID   string
	Name string
}

// LibraryAll is the sentinel ID meaning "every library folder".
const LibraryAll = "all"

// fallbackLibrary keeps downstream selection logic working when the server
// refuses to enumerate its libraries.
var fallbackLibrary = Library{ID: LibraryAll, Name: "All Libraries (Fallback)"}

// Libraries lists the server's media libraries. The MediaFolders endpoint
// is tried first; older servers only answer on VirtualFolders, which
// returns a bare array with a different ID attribute. When neither yields
// anything usable a single synthetic "all" entry is returned instead of an
// error.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var primary struct {
		Items []struct {
			ID   string `json:"Id"`
			Name string `json:"Name"`
		} `json:"Items"`
	}
	err := c.getJSON(ctx, "list libraries", "/emby/Library/MediaFolders", &primary)
	if err == nil && len(primary.Items) > 0 {
		libs := make([]Library, 0, len(primary.Items))
		for _, it := range primary.Items {
			if it.ID != "" && it.Name != "" {
				libs = append(libs, Library{ID: it.ID, Name: it.Name})
			}
		}
		if len(libs) > 0 {
			return libs, nil
		}
	}
	if err != nil {
		c.logger.Warnw("primary library endpoint failed, trying fallback", "err", err)
	} else {
		c.logger.Warn("unexpected library data format, trying fallback")
	}

	var secondary []struct {
		ItemID string `json:"ItemId"`
		ID     string `json:"Id"`
		Name   string `json:"Name"`
	}
	if err := c.getJSON(ctx, "list libraries (fallback)", "/emby/Library/VirtualFolders", &secondary); err == nil {
		libs := make([]Library, 0, len(secondary))
		for _, it := range secondary {
			id := it.ItemID
			if id == "" {
				id = it.ID
			}
			if id != "" && it.Name != "" {
				libs = append(libs, Library{ID: id, Name: it.Name})
			}
		}
		if len(libs) > 0 {
			return libs, nil
		}
	} else {
		c.logger.Warnw("fallback library endpoint failed", "err", err)
	}

	c.logger.Warn("using fallback library option")
	return []Library{fallbackLibrary}, nil
}
