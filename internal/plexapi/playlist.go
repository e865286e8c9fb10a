package plexapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type identityContainer struct {
	MachineIdentifier string `xml:"machineIdentifier,attr"`
}

// machineIdentifier returns the server's machine identifier, fetched once
// and cached on the client. Playlist URIs must reference it.
func (c *Client) machineIdentifier(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machineID != "" {
		return c.machineID, nil
	}

	var container identityContainer
	if err := c.doXML(ctx, http.MethodGet, "/identity", nil, &container); err != nil {
		return "", fmt.Errorf("fetch server identity: %w", err)
	}
	if container.MachineIdentifier == "" {
		return "", errors.New("plex identity response missing machineIdentifier")
	}
	c.machineID = container.MachineIdentifier
	return c.machineID, nil
}

// CreatePlaylist creates a video playlist containing the given rating keys,
// in order. This is the run's single write against the server.
func (c *Client) CreatePlaylist(ctx context.Context, name string, keys []string) error {
	if name == "" {
		return errors.New("playlist name is empty")
	}
	if len(keys) == 0 {
		return errors.New("playlist has no items")
	}

	machineID, err := c.machineIdentifier(ctx)
	if err != nil {
		return err
	}

	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(keys, ","))

	params := url.Values{}
	params.Set("type", "video")
	params.Set("title", name)
	params.Set("smart", "0")
	params.Set("uri", uri)

	if err := c.doXML(ctx, http.MethodPost, "/playlists", params, nil); err != nil {
		return fmt.Errorf("create playlist %q: %w", name, err)
	}
	c.logger.Info().Str("playlist", name).Int("items", len(keys)).Msg("created plex playlist")
	return nil
}
