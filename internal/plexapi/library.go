package plexapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/plexlist/plexlist/internal/catalog"
)

// containerPageSize bounds one enumeration request; Plex pages large
// sections via X-Plex-Container-Start/Size.
const containerPageSize = 200

// Section is one Plex library section.
type Section struct {
	Key   string `xml:"key,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type sectionsContainer struct {
	Directories []Section `xml:"Directory"`
}

// mediaContainer models the slice of a section listing we consume. Movies
// arrive as Video elements, shows as Directory elements; both carry a
// ratingKey.
type mediaContainer struct {
	TotalSize   int         `xml:"totalSize,attr"`
	Size        int         `xml:"size,attr"`
	Videos      []mediaItem `xml:"Video"`
	Directories []mediaItem `xml:"Directory"`
}

type mediaItem struct {
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
	Type      string `xml:"type,attr"`
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var container sectionsContainer
	if err := c.doXML(ctx, http.MethodGet, "/library/sections", nil, &container); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return container.Directories, nil
}

// sectionByName resolves a library name to its section, case-insensitively.
// The section listing is fetched once and cached on the client.
func (c *Client) sectionByName(ctx context.Context, name string) (Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sections == nil {
		secs, err := c.Sections(ctx)
		if err != nil {
			return Section{}, err
		}
		c.sections = make(map[string]Section, len(secs))
		for _, s := range secs {
			c.sections[strings.ToLower(s.Title)] = s
		}
	}

	sec, ok := c.sections[strings.ToLower(name)]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrPartitionNotFound, name)
	}
	return sec, nil
}

// EnumeratePartition lists every entry in the named library section, paging
// through the container API in server order.
func (c *Client) EnumeratePartition(ctx context.Context, partition string) ([]catalog.Entry, error) {
	sec, err := c.sectionByName(ctx, partition)
	if err != nil {
		return nil, err
	}

	var entries []catalog.Entry
	for start := 0; ; start += containerPageSize {
		params := url.Values{}
		params.Set("X-Plex-Container-Start", strconv.Itoa(start))
		params.Set("X-Plex-Container-Size", strconv.Itoa(containerPageSize))

		var container mediaContainer
		path := "/library/sections/" + sec.Key + "/all"
		if err := c.doXML(ctx, http.MethodGet, path, params, &container); err != nil {
			return nil, fmt.Errorf("enumerate section %q: %w", partition, err)
		}

		batch := container.items()
		entries = append(entries, batch...)

		if len(batch) == 0 || (container.TotalSize > 0 && len(entries) >= container.TotalSize) {
			break
		}
	}
	return entries, nil
}

// SearchByTitle runs the section's native title filter.
func (c *Client) SearchByTitle(ctx context.Context, partition, title string) ([]catalog.Entry, error) {
	sec, err := c.sectionByName(ctx, partition)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("title", title)

	var container mediaContainer
	path := "/library/sections/" + sec.Key + "/all"
	if err := c.doXML(ctx, http.MethodGet, path, params, &container); err != nil {
		return nil, fmt.Errorf("search section %q: %w", partition, err)
	}
	return container.items(), nil
}

// items flattens a container into catalog entries, preserving server order
// within each element kind.
func (mc *mediaContainer) items() []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(mc.Videos)+len(mc.Directories))
	for _, v := range mc.Videos {
		entries = append(entries, toEntry(v))
	}
	for _, d := range mc.Directories {
		entries = append(entries, toEntry(d))
	}
	return entries
}

func toEntry(item mediaItem) catalog.Entry {
	t := catalog.EntryOther
	switch item.Type {
	case "movie":
		t = catalog.EntryMovie
	case "show":
		t = catalog.EntryShow
	}
	return catalog.Entry{Key: item.RatingKey, Title: item.Title, Type: t}
}
