package provision

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plex2emby/plex2emby/internal/avatar"
	"github.com/plex2emby/plex2emby/internal/emby"
)

func TestProvisionCreatesAccount(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)

	got, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.RemoteID)
	assert.True(t, got.Created)

	// create plus default policy; no library or image traffic
	assert.True(t, f.sawRequest("POST /emby/Users/New"))
	assert.True(t, f.sawRequest("POST /emby/Users/42/Policy"))
	assert.False(t, f.sawRequest("GET /emby/Users/42/Policy"))
	assert.False(t, f.sawRequest("POST /emby/Users/42/Images/Primary"))
}

func TestProvisionRecoversIDByLookup(t *testing.T) {
	f := newFakeEmby(t)
	f.emptyCreate = true
	p := f.provisioner(avatar.FallbackNone)

	got, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.RemoteID)
	assert.True(t, f.sawRequest("GET /emby/Users"))
}

func TestProvisionCreateFailureIsFatal(t *testing.T) {
	f := newFakeEmby(t)
	f.failCreate = true
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
	})
	var statusErr *emby.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 1, f.requestCount(), "nothing should run after a failed create")
}

func TestProvisionRejectsIncompleteAccount(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{Username: "alice"})
	require.Error(t, err)
	assert.Zero(t, f.requestCount())
}

func TestProvisionLibraryAccessWriteBack(t *testing.T) {
	f := newFakeEmby(t)
	// fetched policy has playback disabled and a field this code does not know
	f.fetchedPolicy = emby.Policy{
		"EnableMediaPlayback":            false,
		"EnableAudioPlaybackTranscoding": false,
		"EnableVideoPlaybackTranscoding": false,
		"EnablePlaybackRemuxing":         false,
		"SomeFutureField":                "keep-me",
	}
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		Libraries: []string{"lib1", "lib2"},
	})
	require.NoError(t, err)

	posts := f.policyPosts()
	require.Len(t, posts, 2, "default policy then library write-back")
	writeBack := posts[1]

	assert.Equal(t, false, writeBack["EnableAllFolders"])
	assert.Equal(t, []any{"lib1", "lib2"}, writeBack["EnabledFolders"])
	assert.Equal(t, "keep-me", writeBack["SomeFutureField"])
	for _, flag := range []string{
		"EnableMediaPlayback",
		"EnableAudioPlaybackTranscoding",
		"EnableVideoPlaybackTranscoding",
		"EnablePlaybackRemuxing",
	} {
		assert.Equal(t, true, writeBack[flag], "%s must be re-asserted", flag)
	}
}

func TestProvisionAllLibrariesSentinel(t *testing.T) {
	f := newFakeEmby(t)
	f.fetchedPolicy = emby.Policy{"EnabledFolders": []any{"old"}}
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		Libraries: []string{LibrariesAll},
	})
	require.NoError(t, err)

	posts := f.policyPosts()
	require.Len(t, posts, 2)
	assert.Equal(t, true, posts[1]["EnableAllFolders"])
}

func TestProvisionDirectAllFoldersWhenFetchFails(t *testing.T) {
	f := newFakeEmby(t)
	f.failPolicyGet = true
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		Libraries: []string{LibrariesAll},
	})
	require.NoError(t, err)

	posts := f.policyPosts()
	require.Len(t, posts, 2)
	assert.Equal(t, true, posts[1]["EnableAllFolders"])
	assert.Equal(t, true, posts[1]["EnableMediaPlayback"])
}

func TestProvisionExplicitLibrariesFetchFailSilent(t *testing.T) {
	f := newFakeEmby(t)
	f.failPolicyGet = true
	p := f.provisioner(avatar.FallbackNone)

	got, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		Libraries: []string{"lib1"},
	})
	require.NoError(t, err, "library step failure must not abort the operation")
	assert.Equal(t, "42", got.RemoteID)
	assert.Len(t, f.policyPosts(), 1, "only the default policy should be written")
}

func TestProvisionSkipLibraries(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)
	p.SkipLibraries = true

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		Libraries: []string{"lib1"},
	})
	require.NoError(t, err)
	assert.False(t, f.sawRequest("GET /emby/Users/42/Policy"))
}

func TestProvisionUploadsAvatar(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		AvatarURL: f.avatarURL(),
	})
	require.NoError(t, err)

	require.Len(t, f.uploadedImages, 1)
	assert.Equal(t, "png", f.uploadedImages[0]["Format"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), f.uploadedImages[0]["Data"])
}

func TestProvisionAvatarFailureNonFatal(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)

	got, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		AvatarURL: "http://127.0.0.1:1/nope.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.RemoteID)
	assert.Empty(t, f.uploadedImages)
}

func TestProvisionSkipImages(t *testing.T) {
	f := newFakeEmby(t)
	p := f.provisioner(avatar.FallbackNone)
	p.SkipImages = true

	_, err := p.Provision(context.Background(), Account{
		Username: "alice", Email: "a@x.com", Password: "p1",
		AvatarURL: f.avatarURL(),
	})
	require.NoError(t, err)
	assert.Empty(t, f.uploadedImages)
}
