package catalog

// First-run content for a storefront with nothing persisted yet.

func price(v float64) *float64 { return &v }

func SeedProducts() []Product {
	seeds := []Product{
		{
			ID: 1, Name: "Classic Wooden Frame (8x10)", Price: 49, OriginalPrice: price(79), Category: "frames",
			Description: "Elegant solid wood frame with premium finish.",
			MainImage:   "https://m.media-amazon.com/images/I/618822mQcxL.jpg",
			CarouselImages: []string{
				"https://m.media-amazon.com/images/I/71example-frame2.jpg",
				"https://m.media-amazon.com/images/I/81example-frame3.jpg",
			},
		},
		{
			ID: 2, Name: "Premium Leather Album", Price: 299, OriginalPrice: price(399), Category: "albums",
			Description: "Handcrafted genuine leather album with acid-free pages.",
			MainImage:   "https://m.media-amazon.com/images/I/71T37AXEXvL.*AC_UF894,1000_QL80*.jpg",
			CarouselImages: []string{
				"https://m.media-amazon.com/images/I/81leather-inside.jpg",
				"https://m.media-amazon.com/images/I/91leather-detail.jpg",
				"https://m.media-amazon.com/images/I/61leather-back.jpg",
			},
		},
		{
			ID: 3, Name: "Custom Wedding Photo Book", Price: 599, OriginalPrice: price(699), Category: "books",
			Description: "Personalized hardcover photo book for your special day.",
			MainImage:   "https://cdn-image.staticsfly.com/i/store/WF1130270/WF1130270_SY_WeddingPB_Marquee_2_798x627.webp?quality=80",
			CarouselImages: []string{
				"https://example.com/wedding-book-open.jpg",
				"https://example.com/wedding-book-pages.jpg",
			},
		},
		{
			ID: 4, Name: "Metal Wall Frame Set", Price: 149, OriginalPrice: price(199), Category: "frames",
			Description: "Modern minimalist metal frames - set of 3.",
			MainImage:   "https://m.media-amazon.com/images/S/aplus-media-library-service-media/3fb7379e-f06c-4cd6-a8bb-fbd1bbe52bef.__CR0,0,970,600_PT0_SX970_V1___.png",
		},
		{
			ID: 5, Name: "Collage Multi-Photo Frame", Price: 199, OriginalPrice: price(249), Category: "frames",
			Description: "Display 8 photos in one beautiful collage frame.",
			MainImage:   "https://m.media-amazon.com/images/I/718bXRoIEzL.*AC_UF894,1000_QL80*.jpg",
		},
		{
			ID: 6, Name: "Handmade Scrapbook Album", Price: 399, OriginalPrice: price(499), Category: "albums",
			Description: "Artisanal scrapbook with decorative pages and pockets.",
			MainImage:   "https://c02.purpledshub.com/uploads/sites/51/2021/02/DIY-scrapbook-0c6eed7.jpg?w=1200",
		},
	}

	for i, p := range seeds {
		p.DetailedDescription = p.Description
		seeds[i] = withDerivedImages(p)
	}
	return seeds
}

func SeedHeroBanners() []HeroBanner {
	return []HeroBanner{
		{ID: "1", Title: "Frames Starting at ₹49", Description: "Premium wooden & metal frames for every memory",
			Image: "https://img.freepik.com/free-photo/copy-space-frame-with-sale-label_23-2148670043.jpg?w=740"},
		{ID: "2", Title: "Luxury Albums Up to 40% Off", Description: "Handcrafted leather albums - timeless elegance",
			Image: "https://static.vecteezy.com/system/resources/previews/002/104/115/non_2x/luxury-banner-roll-up-black-friday-sale-with-picture-slots-template-free-vector.jpg"},
		{ID: "3", Title: "Custom Photo Books", Description: "Personalized hardcover books from ₹599",
			Image: "https://blog.lulu.com/content/images/thumbnail/lulu-create-photobooks-main-banner-open-graph.png"},
		{ID: "4", Title: "Bundle & Save Big", Description: "Frames + Albums + Books combos - extra 20% off",
			Image: "https://media1.pbwwcdn.net/promotion_groups/pg-banner-910325559.jpeg"},
	}
}

func SeedShopCategories() []ShopCategory {
	return []ShopCategory{
		{ID: "1", Name: "Wedding Albums", Link: "/category/wedding-albums",
			Image: "https://images.unsplash.com/photo-1519741497674-611481863552?w=1200&q=70&auto=format&fit=crop"},
		{ID: "2", Name: "Photo Frames", Link: "/category/photo-frames",
			Image: "https://images.unsplash.com/photo-1523413651479-597eb2da0ad6?w=1200&q=70&auto=format&fit=crop"},
		{ID: "3", Name: "Pre-Wedding Shoots", Link: "/category/pre-wedding",
			Image: "https://images.unsplash.com/photo-1522312346375-d1a52e2b99b3?w=1200&q=70&auto=format&fit=crop"},
		{ID: "4", Name: "Portrait Albums", Link: "/category/portraits",
			Image: "https://images.unsplash.com/photo-1508214751196-bcfd4ca60f91?w=1200&q=70&auto=format&fit=crop"},
	}
}

func SeedTrendingProductIDs() []int64   { return []int64{1, 3, 5} }
func SeedBestSellerProductIDs() []int64 { return []int64{2, 4, 6} }
