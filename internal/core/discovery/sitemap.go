package discovery

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSitemap 根元素既不是 urlset 也不是 sitemapindex
var ErrUnknownSitemap = errors.New("unknown sitemap root element")

type sitemapKind int

const (
	kindURLSet sitemapKind = iota
	kindIndex
)

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

// parseSitemap 解析 sitemap XML；index 時回傳子 sitemap 網址
func parseSitemap(body []byte) (sitemapKind, []string, error) {
	var doc sitemapDoc
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&doc); err != nil {
		return 0, nil, fmt.Errorf("parse sitemap: %w", err)
	}

	switch doc.XMLName.Local {
	case "urlset":
		return kindURLSet, locs(doc.URLs), nil
	case "sitemapindex":
		return kindIndex, locs(doc.Sitemaps), nil
	}
	return 0, nil, fmt.Errorf("%w: %s", ErrUnknownSitemap, doc.XMLName.Local)
}

func locs(entries []sitemapLoc) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if loc := strings.TrimSpace(e.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}
