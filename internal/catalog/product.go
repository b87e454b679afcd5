package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const defaultCategory = "uncategorized"

// Product is the canonical stored shape. Images and Image are derived from
// MainImage and CarouselImages and are kept for older readers.
type Product struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Price               float64  `json:"price"`
	OriginalPrice       *float64 `json:"originalPrice"`
	Category            string   `json:"category"`
	Description         string   `json:"description"`
	DetailedDescription string   `json:"detailedDescription"`
	MainImage           string   `json:"mainImage"`
	CarouselImages      []string `json:"carouselImages"`
	Images              []string `json:"images"`
	Image               string   `json:"image"`
}

// Discounted reports whether the product carries an original price above its price.
func (p Product) Discounted() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

func (p Product) clone() Product {
	p.CarouselImages = cloneStrings(p.CarouselImages)
	p.Images = cloneStrings(p.Images)
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		p.OriginalPrice = &v
	}
	return p
}

// DeriveImages returns [mainImage] ++ carousel with empty entries removed.
func DeriveImages(mainImage string, carousel []string) []string {
	out := make([]string, 0, len(carousel)+1)
	if mainImage != "" {
		out = append(out, mainImage)
	}
	for _, img := range carousel {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}

// withDerivedImages recomputes Images and Image from MainImage and CarouselImages.
func withDerivedImages(p Product) Product {
	if p.CarouselImages == nil {
		p.CarouselImages = []string{}
	}
	p.Images = DeriveImages(p.MainImage, p.CarouselImages)
	p.Image = p.MainImage
	return p
}

// Amount is a price that decodes from a JSON number or a numeric string.
// null, "" and anything unparsable decode to zero.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(ParseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// ParseAmount coerces user input to a number, zero when it is not one.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// ImageList decodes any JSON value. Anything other than an array of strings
// becomes an empty list.
type ImageList []string

func (l *ImageList) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		*l = ImageList{}
		return nil
	}
	*l = items
	return nil
}

// ProductInput is the data for AddProduct.
type ProductInput struct {
	Name                string    `json:"name"`
	Price               Amount    `json:"price"`
	OriginalPrice       *Amount   `json:"originalPrice,omitempty"`
	Category            string    `json:"category,omitempty"`
	Description         string    `json:"description,omitempty"`
	DetailedDescription string    `json:"detailedDescription,omitempty"`
	MainImage           string    `json:"mainImage"`
	CarouselImages      ImageList `json:"carouselImages,omitempty"`
}

func newProduct(id int64, in ProductInput) Product {
	p := Product{
		ID:                  id,
		Name:                in.Name,
		Price:               float64(in.Price),
		Category:            in.Category,
		Description:         in.Description,
		DetailedDescription: in.DetailedDescription,
		MainImage:           in.MainImage,
		CarouselImages:      cloneStrings(in.CarouselImages),
	}
	if in.OriginalPrice != nil && *in.OriginalPrice > 0 {
		v := float64(*in.OriginalPrice)
		p.OriginalPrice = &v
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	if p.DetailedDescription == "" {
		p.DetailedDescription = p.Description
	}
	return withDerivedImages(p)
}

// ProductUpdate is a partial update. Nil fields keep the stored value.
// CarouselImages distinguishes absent (nil) from present; a present value
// that is not an array of strings replaces the carousel with an empty one.
type ProductUpdate struct {
	Name                *string
	Price               *Amount
	OriginalPrice       *Amount
	Category            *string
	Description         *string
	DetailedDescription *string
	MainImage           *string
	CarouselImages      *ImageList
}

func (u *ProductUpdate) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name                *string         `json:"name"`
		Price               *Amount         `json:"price"`
		OriginalPrice       *Amount         `json:"originalPrice"`
		Category            *string         `json:"category"`
		Description         *string         `json:"description"`
		DetailedDescription *string         `json:"detailedDescription"`
		MainImage           *string         `json:"mainImage"`
		CarouselImages      json.RawMessage `json:"carouselImages"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*u = ProductUpdate{
		Name:                raw.Name,
		Price:               raw.Price,
		OriginalPrice:       raw.OriginalPrice,
		Category:            raw.Category,
		Description:         raw.Description,
		DetailedDescription: raw.DetailedDescription,
		MainImage:           raw.MainImage,
	}
	if raw.CarouselImages != nil {
		var l ImageList
		_ = l.UnmarshalJSON(raw.CarouselImages)
		u.CarouselImages = &l
	}
	return nil
}

func applyUpdate(p Product, u ProductUpdate) Product {
	p = p.clone()

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = float64(*u.Price)
	}
	if u.OriginalPrice != nil {
		if *u.OriginalPrice > 0 {
			v := float64(*u.OriginalPrice)
			p.OriginalPrice = &v
		} else {
			p.OriginalPrice = nil
		}
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.DetailedDescription != nil {
		p.DetailedDescription = *u.DetailedDescription
	}
	if u.MainImage != nil {
		p.MainImage = *u.MainImage
	}
	if u.CarouselImages != nil {
		p.CarouselImages = cloneStrings(*u.CarouselImages)
	}
	return withDerivedImages(p)
}

// storedProduct accepts every shape products were ever persisted in.
type storedProduct struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Price               Amount    `json:"price"`
	OriginalPrice       *Amount   `json:"originalPrice"`
	Category            string    `json:"category"`
	Description         string    `json:"description"`
	DetailedDescription string    `json:"detailedDescription"`
	LongDescription     string    `json:"longDescription"`
	MainImage           *string   `json:"mainImage"`
	CarouselImages      *[]string `json:"carouselImages"`
	Images              []string  `json:"images"`
	Image               string    `json:"image"`
}

// migrateProduct normalizes a stored record to the current shape. A record
// carrying mainImage or carouselImages is current and only has its derived
// fields recomputed. Otherwise the legacy image and images fields supply the
// mainImage and carousel.
func migrateProduct(sp storedProduct) Product {
	p := Product{
		ID:                  sp.ID,
		Name:                sp.Name,
		Price:               float64(sp.Price),
		Category:            sp.Category,
		Description:         sp.Description,
		DetailedDescription: firstNonEmpty(sp.DetailedDescription, sp.LongDescription, sp.Description),
	}
	if sp.OriginalPrice != nil && *sp.OriginalPrice > 0 {
		v := float64(*sp.OriginalPrice)
		p.OriginalPrice = &v
	}

	if sp.MainImage != nil || sp.CarouselImages != nil {
		if sp.MainImage != nil {
			p.MainImage = *sp.MainImage
		} else {
			p.MainImage = sp.Image
		}
		if sp.CarouselImages != nil {
			p.CarouselImages = cloneStrings(*sp.CarouselImages)
		}
		return withDerivedImages(p)
	}

	p.MainImage = firstNonEmpty(sp.Image, first(sp.Images))
	if len(sp.Images) > 1 {
		p.CarouselImages = cloneStrings(sp.Images[1:])
	}
	return withDerivedImages(p)
}

// DecodeProducts decodes a persisted products value and migrates every record.
func DecodeProducts(raw string) ([]Product, error) {
	var stored []storedProduct
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(stored))
	for _, sp := range stored {
		out = append(out, migrateProduct(sp))
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}
