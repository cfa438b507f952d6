// Package sitemap discovers and sizes a storefront's product catalog by
// probing well-known sitemap locations and counting product URLs.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// ErrNotSitemap means the document is neither a sitemap index nor a
// urlset.
var ErrNotSitemap = errors.New("sitemap: document is not a sitemap")

// Document is a parsed sitemap: either an index of child sitemaps or a
// leaf urlset. Exactly one of ChildSitemaps/URLs is populated.
type Document struct {
	IsIndex       bool
	ChildSitemaps []string
	URLs          []string
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Parse decodes a sitemap document, accepting both namespaced and
// namespace-less XML.
func Parse(data []byte) (*Document, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, ErrNotSitemap
	}

	switch root {
	case "sitemapindex":
		var idx sitemapIndex
		if err := xml.Unmarshal(data, &idx); err != nil {
			return nil, ErrNotSitemap
		}
		doc := &Document{IsIndex: true}
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				doc.ChildSitemaps = append(doc.ChildSitemaps, loc)
			}
		}
		return doc, nil
	case "urlset":
		var set urlSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return nil, ErrNotSitemap
		}
		doc := &Document{}
		for _, u := range set.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				doc.URLs = append(doc.URLs, loc)
			}
		}
		return doc, nil
	default:
		return nil, ErrNotSitemap
	}
}

// rootElement returns the local name of the first XML start element.
func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}
