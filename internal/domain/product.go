package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Category represents a product category. Name is the grouping key shown in views.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryRef is the read-time join projection of a product's category.
type CategoryRef struct {
	Name string `json:"name"`
}

// Product represents one household inventory item.
// The json tags correspond to the fields expected in API responses/requests.
type Product struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	CategoryID int64        `json:"category_id"`
	ImageURL   *string      `json:"image_url,omitempty"`   // Pointer for nullable fields
	ImageLabel *string      `json:"image_label,omitempty"` // Original upload filename, used as alt text
	ToBuy      bool         `json:"tobuy"`
	InCart     bool         `json:"incart"`
	Category   *CategoryRef `json:"category,omitempty"` // nil when the join found nothing
}

// UnmarshalJSON accepts the joined category either as an object or as a
// one-element array and normalises both into Category.
func (p *Product) UnmarshalJSON(data []byte) error {
	type productAlias Product
	aux := struct {
		*productAlias
		Category json.RawMessage `json:"category"`
	}{productAlias: (*productAlias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ref, err := decodeCategoryRef(aux.Category)
	if err != nil {
		return fmt.Errorf("domain: product %d: %w", p.ID, err)
	}
	p.Category = ref
	return nil
}

func decodeCategoryRef(raw json.RawMessage) (*CategoryRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var refs []*CategoryRef
		if err := json.Unmarshal(raw, &refs); err != nil {
			return nil, fmt.Errorf("invalid category list: %w", err)
		}
		if len(refs) == 0 {
			return nil, nil
		}
		return refs[0], nil
	}
	var ref CategoryRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("invalid category object: %w", err)
	}
	return &ref, nil
}

// Clone returns a shallow copy of the product.
func (p *Product) Clone() *Product {
	cp := *p
	return &cp
}

// ToggleKind selects which boolean flag of a product a toggle operation flips.
type ToggleKind int

const (
	ToggleToBuy ToggleKind = iota + 1
	ToggleInCart
)

func (k ToggleKind) String() string {
	switch k {
	case ToggleToBuy:
		return "tobuy"
	case ToggleInCart:
		return "incart"
	default:
		return fmt.Sprintf("ToggleKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k ToggleKind) Valid() bool {
	return k == ToggleToBuy || k == ToggleInCart
}

// ParseToggleKind parses the wire name of a toggle kind.
func ParseToggleKind(s string) (ToggleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tobuy":
		return ToggleToBuy, nil
	case "incart":
		return ToggleInCart, nil
	default:
		return 0, fmt.Errorf("domain: unknown toggle kind %q", s)
	}
}

func (k ToggleKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("domain: invalid toggle kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *ToggleKind) UnmarshalText(text []byte) error {
	parsed, err := ParseToggleKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Flag returns the value of the flag selected by kind.
func (p *Product) Flag(kind ToggleKind) bool {
	switch kind {
	case ToggleToBuy:
		return p.ToBuy
	case ToggleInCart:
		return p.InCart
	default:
		return false
	}
}

// PageType selects how a product collection is presented.
type PageType string

const (
	PageInventory PageType = "inventory"
	PageShopping  PageType = "shopping"
)

// ParsePageType accepts the page names used by the web front-end.
func ParsePageType(s string) (PageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inventory", "inventaire":
		return PageInventory, nil
	case "shopping", "shopping-list":
		return PageShopping, nil
	default:
		return "", fmt.Errorf("domain: unknown page type %q", s)
	}
}

// ImageSource is where the image of a new product comes from:
// UploadedImage, ExistingImage or NoImage.
type ImageSource interface {
	isImageSource()
}

// UploadedImage is a freshly uploaded binary that must be stored in the bucket.
type UploadedImage struct {
	Filename string
	Content  io.Reader
	Size     int64
}

// ExistingImage references an object already stored in the bucket.
type ExistingImage struct {
	URL string
}

// NoImage means the product has no image.
type NoImage struct{}

func (UploadedImage) isImageSource() {}
func (ExistingImage) isImageSource() {}
func (NoImage) isImageSource()       {}
