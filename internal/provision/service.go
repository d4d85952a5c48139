// Package provision creates accounts on an Emby server from exported user
// rows: create the account, then best-effort policy, library access, and
// profile image steps.
package provision

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"github.com/plex2emby/plex2emby/internal/avatar"
	"github.com/plex2emby/plex2emby/internal/emby"
)

// Provisioner runs the per-account provisioning sequence.
type Provisioner struct {
	client  *emby.Client
	avatars *avatar.Fetcher
	logger  *zap.SugaredLogger

	// StepDelay is slept between provisioning steps of one account; the
	// server sometimes needs a moment before the new user is addressable.
	StepDelay time.Duration

	SkipLibraries bool
	SkipImages    bool
}

func NewProvisioner(client *emby.Client, avatars *avatar.Fetcher, logger *zap.SugaredLogger) *Provisioner {
	return &Provisioner{
		client:    client,
		avatars:   avatars,
		logger:    logger,
		StepDelay: time.Second,
	}
}

// Provision creates the remote account and applies policy, library access,
// and profile image. Only account creation is fatal: once the account
// exists with a known ID the operation succeeds, and failures in the
// remaining steps are logged warnings.
func (p *Provisioner) Provision(ctx context.Context, acct Account) (*Provisioned, error) {
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	id, err := p.client.CreateUser(ctx, acct.Username, acct.Email, acct.Password)
	if err != nil {
		return nil, err
	}
	p.logger.Infow("successfully created user", "username", acct.Username, "id", id)
	p.pause(ctx)

	pol := emby.DefaultPolicy(acct.Roles)
	if err := p.client.SetUserPolicy(ctx, id, pol); err != nil {
		p.logger.Warnw("failed to set policy", "username", acct.Username, "err", err)
	}

	if len(acct.Libraries) > 0 && !p.SkipLibraries {
		p.pause(ctx)
		if err := p.assignLibraries(ctx, id, acct); err != nil {
			p.logger.Warnw("failed to set library access", "username", acct.Username, "err", err)
		}
	}

	if acct.AvatarURL != "" && !p.SkipImages {
		p.pause(ctx)
		p.assignAvatar(ctx, id, acct)
	}

	return &Provisioned{Account: acct, RemoteID: id, Created: true}, nil
}

// assignLibraries grants library access via a read-modify-write of the full
// policy document so unrelated permission fields survive. When the current
// policy cannot be fetched, a minimal all-folders document is written
// directly, but only for the "all" sentinel.
func (p *Provisioner) assignLibraries(ctx context.Context, id string, acct Account) error {
	pol, err := p.client.UserPolicy(ctx, id)
	if err != nil {
		if acct.allLibraries() {
			p.logger.Infow("policy fetch failed, writing all-folders policy directly", "id", id)
			return p.client.SetUserPolicy(ctx, id, emby.AllFoldersPolicy())
		}
		return err
	}

	if acct.allLibraries() {
		pol["EnableAllFolders"] = true
	} else {
		pol["EnableAllFolders"] = false
		pol["EnabledFolders"] = acct.Libraries
	}
	emby.AssertPlaybackBaseline(pol)

	p.logger.Infow("updating library access", "id", id, "all_folders", pol["EnableAllFolders"])
	return p.client.SetUserPolicy(ctx, id, pol)
}

func (p *Provisioner) assignAvatar(ctx context.Context, id string, acct Account) {
	data, format, err := p.avatars.Fetch(ctx, acct.AvatarURL, id)
	if err != nil {
		p.logger.Warnw("could not get any profile image", "id", id, "err", err)
		return
	}
	if err := p.client.UploadUserImage(ctx, id, format, base64.StdEncoding.EncodeToString(data)); err != nil {
		p.logger.Warnw("failed to upload profile image", "id", id, "err", err)
		return
	}
	p.logger.Infow("uploaded profile image", "id", id, "format", format)
}

func (p *Provisioner) pause(ctx context.Context) {
	if p.StepDelay <= 0 {
		return
	}
	t := time.NewTimer(p.StepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
