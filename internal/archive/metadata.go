package archive

import (
	"fmt"
	"os"
	"strings"

	simplejson "github.com/bitly/go-simplejson"
	"go.uber.org/zap"
)

// Fixed item classification for every upload.
const (
	MediaType  = "movies"
	Collection = "opensource_movies"
)

const defaultTitle = "Untitled Video"

// Metadata is the normalized upload record derived from a downloader sidecar
// document. Constructed fresh per upload attempt and never mutated after.
type Metadata struct {
	Title       string
	Description string
	Creator     string
	Subject     []string
	Source      string
	MediaType   string
	Collection  string
}

// ExtractMetadata maps a sidecar info document into upload metadata. It never
// fails: a malformed or unreadable sidecar degrades to a minimal record keyed
// on the original URL.
func ExtractMetadata(infoFile string, url string) Metadata {
	md := Metadata{
		Title:      defaultTitle,
		Subject:    []string{},
		Source:     url,
		MediaType:  MediaType,
		Collection: Collection,
	}

	data, err := os.ReadFile(infoFile)
	if err != nil {
		zap.S().Named("archive").Errorw("failed to read sidecar", "path", infoFile, "error", err)
		return md
	}
	doc, err := simplejson.NewJson(data)
	if err != nil {
		zap.S().Named("archive").Errorw("failed to parse sidecar", "path", infoFile, "error", err)
		return md
	}

	if title := doc.Get("title").MustString(); title != "" {
		md.Title = title
	}
	md.Description = doc.Get("description").MustString()
	if tags := stringList(doc.Get("tags")); len(tags) > 0 {
		md.Subject = tags
	} else if categories := stringList(doc.Get("categories")); len(categories) > 0 {
		md.Subject = categories
	}
	if uploader := doc.Get("uploader").MustString(); uploader != "" {
		md.Creator = uploader
	} else {
		md.Creator = doc.Get("channel").MustString()
	}
	if source := doc.Get("webpage_url").MustString(); source != "" {
		md.Source = source
	}
	return md
}

func stringList(j *simplejson.Json) []string {
	raw, err := j.Array()
	if err != nil {
		return nil
	}
	list := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			list = append(list, s)
		}
	}
	return list
}

// headers renders the metadata as x-archive-meta upload headers.
func (md Metadata) headers() map[string]string {
	h := map[string]string{
		"X-Archive-Meta-Mediatype":  md.MediaType,
		"X-Archive-Meta-Collection": md.Collection,
		"X-Archive-Meta-Title":      md.Title,
		"X-Archive-Meta-Source":     md.Source,
	}
	if md.Description != "" {
		h["X-Archive-Meta-Description"] = md.Description
	}
	if md.Creator != "" {
		h["X-Archive-Meta-Creator"] = md.Creator
	}
	if len(md.Subject) > 0 {
		h["X-Archive-Meta-Subject"] = strings.Join(md.Subject, ";")
	}
	return h
}

func (md Metadata) String() string {
	return fmt.Sprintf("Metadata{Title:%q, Creator:%q, Source:%q}", md.Title, md.Creator, md.Source)
}
