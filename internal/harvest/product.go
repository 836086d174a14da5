// internal/harvest/product.go
package harvest

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"phone-finder-workers/internal/models"

	"golang.org/x/net/html"
)

var ErrNoProductName = errors.New("product page has no h1")

// Spec list labels and the listing column each one fills.
const (
	specStorage   = "Memoria Interna"
	specRAM       = "Memoria RAM"
	specCamera    = "Resolución cámara posterior"
	specBattery   = "Capacidad de la batería"
	specScreen    = "Tamaño de pantalla"
	specProcessor = "Procesador"
	specOS        = "Sistema operativo"
	specBrand     = "Marca"
)

var (
	nonDigits    = regexp.MustCompile(`[^0-9]`)
	specJunk     = regexp.MustCompile(`[^0-9.,A-Za-z\s]`)
	firstInt     = regexp.MustCompile(`\d+`)
	firstDecimal = regexp.MustCompile(`\d+(\.\d+)?`)
)

// ParseProduct reads a retailer product page into a listing for url. The
// name comes from the first h1, the price from ".price-box .skuBestPrice" and
// the rest from "Key - Value" items under ".product-specs-list".
func ParseProduct(url string, body io.Reader) (models.PhoneListing, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return models.PhoneListing{}, fmt.Errorf("parse product page: %w", err)
	}

	l := models.PhoneListing{Phone: models.Phone{URL: url}}

	h1 := findFirst(doc, func(n *html.Node) bool { return isElement(n, "h1") })
	if h1 == nil {
		return models.PhoneListing{}, ErrNoProductName
	}
	l.Name = strings.TrimSpace(textOf(h1))

	if box := findFirst(doc, hasClass("price-box")); box != nil {
		if price := findFirst(box, hasClass("skuBestPrice")); price != nil {
			if digits := nonDigits.ReplaceAllString(textOf(price), ""); digits != "" {
				if n, err := strconv.Atoi(digits); err == nil {
					l.PriceCOP = n
				}
			}
		}
	}

	for _, list := range findAll(doc, hasClass("product-specs-list")) {
		for _, li := range findAll(list, func(n *html.Node) bool { return isElement(n, "li") }) {
			key, value, ok := strings.Cut(textOf(li), " - ")
			if !ok {
				continue
			}
			applySpec(&l, strings.TrimSpace(key), specJunk.ReplaceAllString(value, ""))
		}
	}

	return l, nil
}

func applySpec(l *models.PhoneListing, key, value string) {
	switch key {
	case specStorage:
		l.StorageGB = leadingInt(value)
	case specRAM:
		l.RAMGB = leadingInt(value)
	case specCamera:
		l.CameraMP = leadingInt(value)
	case specBattery:
		l.BatteryMAH = leadingInt(value)
	case specScreen:
		if m := firstDecimal.FindString(value); m != "" {
			l.ScreenSizeIn, _ = strconv.ParseFloat(m, 64)
		}
	case specProcessor:
		l.Processor = strings.TrimSpace(value)
	case specOS:
		l.OS = strings.TrimSpace(value)
	case specBrand:
		l.Brand = strings.TrimSpace(value)
	}
}

func leadingInt(value string) int {
	n, _ := strconv.Atoi(firstInt.FindString(value))
	return n
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, attr := range n.Attr {
			if attr.Key == "class" {
				for _, c := range strings.Fields(attr.Val) {
					if c == class {
						return true
					}
				}
			}
		}
		return false
	}
}

// findFirst returns the first descendant of root, in document order, that
// matches.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
