package emby

import (
	"context"
	"net/url"
)

// Policy is a user's full permission document. It is handled as a loose map
// so that read-modify-write cycles round-trip every field the server sent,
// including ones this client knows nothing about.
type Policy map[string]any

// DefaultPolicy builds the baseline permission document for a standard
// (non-administrator) account, with role-derived flag overrides applied.
func DefaultPolicy(roles []string) Policy {
	p := Policy{
		"IsAdministrator":                 false,
		"IsHidden":                        false,
		"IsDisabled":                      false,
		"BlockedTags":                     []string{},
		"EnableUserPreferenceAccess":      true,
		"AccessSchedules":                 []string{},
		"BlockUnratedItems":               []string{},
		"EnableRemoteControlOfOtherUsers": false,
		"EnableSharedDeviceControl":       true,
		"EnableRemoteAccess":              true,
		"EnableLiveTvManagement":          false,
		"EnableLiveTvAccess":              true,
		"EnableMediaPlayback":             true,
		"EnableAudioPlaybackTranscoding":  true,
		"EnableVideoPlaybackTranscoding":  true,
		"EnablePlaybackRemuxing":          true,
		"EnablePublicSharing":             false,
		"EnableDownloading":               true,
		"EnableSubtitleDownloading":       true,
		"EnableSubtitleManagement":        false,
		"EnableSyncTranscoding":           true,
		"EnableMediaConversion":           true,
		"EnableAllDevices":                true,
		"EnableAllChannels":               false,
		"EnableRemoteControllers":         true,
	}
	for _, role := range roles {
		switch role {
		case "EnablePlayback":
			p["EnableMediaPlayback"] = true
		case "EnableVideoPlayback":
			p["EnableVideoPlaybackTranscoding"] = true
		case "EnableAudioPlayback":
			p["EnableAudioPlaybackTranscoding"] = true
		}
	}
	return p
}

// AssertPlaybackBaseline forces the playback and transcoding flags on. A
// policy fetched from the server may have them disabled; every write-back
// re-asserts them so granting library access never locks a user out of
// playback.
func AssertPlaybackBaseline(p Policy) {
	p["EnableMediaPlayback"] = true
	p["EnableAudioPlaybackTranscoding"] = true
	p["EnableVideoPlaybackTranscoding"] = true
	p["EnablePlaybackRemuxing"] = true
	p["EnableSharedDeviceControl"] = true
}

// AllFoldersPolicy is the minimal document granting access to all library
// folders, used when the current policy cannot be fetched first.
func AllFoldersPolicy() Policy {
	return Policy{
		"EnableAllFolders":               true,
		"EnableAllChannels":              false,
		"EnableAllDevices":               true,
		"EnableContentDeletion":          false,
		"EnableSync":                     true,
		"EnableLiveTvAccess":             false,
		"EnableLiveTvManagement":         false,
		"EnableMediaPlayback":            true,
		"EnableAudioPlaybackTranscoding": true,
		"EnableVideoPlaybackTranscoding": true,
		"EnablePlaybackRemuxing":         true,
		"EnableSharedDeviceControl":      true,
	}
}

// UserPolicy fetches a user's current permission document.
func (c *Client) UserPolicy(ctx context.Context, userID string) (Policy, error) {
	var p Policy
	if err := c.getJSON(ctx, "get policy", c.policyPath(userID), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetUserPolicy writes a full permission document for a user.
func (c *Client) SetUserPolicy(ctx context.Context, userID string, p Policy) error {
	_, err := c.postJSON(ctx, "set policy", c.policyPath(userID), p)
	return err
}

func (c *Client) policyPath(userID string) string {
	return "/emby/Users/" + url.PathEscape(userID) + "/Policy"
}
