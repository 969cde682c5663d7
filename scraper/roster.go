package scraper

// DefaultRoster returns the built-in source table, already normalized. Keys
// must match the URLs stored in the media registry.
func DefaultRoster() Roster {
	return Roster{
		{
			Key:      "https://english.elpais.com/",
			Name:     "El País",
			Landing:  Locator{Tag: "main"},
			Dismiss:  []string{"#", "/elections/", "autoplay=1"},
			Strategy: StrategyEmbeddedMetadata,
			Metadata: &MetadataLocator{
				Tag:        "script",
				Type:       "application/ld+json",
				TitleKey:   "headline",
				SummaryKey: "description",
				BodyKey:    "articleBody",
			},
		},
		{
			Key:     "https://www.bbc.com/",
			Name:    "BBC",
			Landing: Locator{Tag: "main"},
			Dismiss: []string{"#", "/live/", "/videos/", "/resources/", "/election/"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "main", Nested: "article", Recursive: true},
		},
		{
			Key:          "https://www.aljazeera.com/",
			Name:         "Al Jazeera",
			Landing:      Locator{Tag: "div", Class: "trending-articles"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/liveblog/", "/program/", "/results/", "/video/"},
			Title:        &Locator{Tag: "main", Nested: "h1"},
			Article:      &Locator{Tag: "div", Class: "wysiwyg"},
		},
		{
			Key:          "https://www.theguardian.com/",
			Name:         "The Guardian",
			Landing:      Locator{Tag: "main"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/live/", "/gallery/"},
			Title:        &Locator{Tag: "h1"},
			Article:      &Locator{Tag: "main", Nested: "article", Recursive: true},
		},
		{
			Key:     "https://www.nbcnews.com/",
			Name:    "NBC",
			Landing: Locator{Tag: "div", Class: "multistory-container"},
			Dismiss: []string{"#", "/live-blog/", "/video/"},
			Title:   &Locator{Tag: "header", Nested: "h1"},
			Article: &Locator{Tag: "div", Class: "article-body__content"},
		},
		{
			Key:     "https://apnews.com/",
			Name:    "AP",
			Landing: Locator{Tag: "main"},
			Dismiss: []string{"#", "/live/", "/video/"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "div", Class: "RichTextStoryBody"},
		},
		{
			Key:     "https://www.cbsnews.com/",
			Name:    "CBS",
			Landing: Locator{Tag: "div", Class: "type--content-feature"},
			Dismiss: []string{"#", "/live/", "/video/"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "section", Class: "content__body"},
		},
		{
			Key:     "https://www.foxnews.com/world",
			Name:    "Fox News",
			Landing: Locator{Tag: "main", Class: "main-content"},
			Dismiss: []string{
				"#", "/deals/", "/videos/", "/sports/", "/video", "/travel/",
				"/lifestyle/", "/tag/", "/us-regions/", "/category/",
			},
			GenericLinks: true,
			Title:        &Locator{Tag: "h1", Class: "headline"},
			Article:      &Locator{Tag: "div", Class: "article-body", Remove: []string{"strong"}},
		},
		{
			Key:           "https://edition.cnn.com/",
			Name:          "CNN",
			Landing:       Locator{Tag: "div", Class: "scope"},
			Dismiss:       []string{"#", "/live-news/", "/videos/", "/sport/", "/video/", "/travel/"},
			MinPathDigits: 8,
			Title:         &Locator{Tag: "h1", Class: "headline__text"},
			Article:       &Locator{Tag: "div", Class: "article__content"},
		},
		{
			Key:     "https://www.politico.eu/",
			Name:    "Politico Europe",
			Landing: Locator{Tag: "main"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "main", Recursive: true},
		},
		{
			Key:          "https://www.dw.com/en/top-stories/s-9097",
			Name:         "DW",
			Landing:      Locator{Tag: "div", Class: "content-blocks"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/live-", "/video-"},
			Title:        &Locator{Tag: "h1"},
			Article:      &Locator{Tag: "div", Class: "content-area", Recursive: true},
		},
		{
			Key:          "https://www.france24.com/",
			Name:         "France 24",
			Landing:      Locator{Tag: "main"},
			GenericLinks: true,
			Dismiss:      []string{"#", "-live-", "/tv-shows/", "/video/"},
			Title:        &Locator{Tag: "h1"},
			Article:      &Locator{Tag: "div", Class: "t-content--article", Recursive: true},
		},
		{
			Key:     "https://www.chinadaily.com.cn/world",
			Name:    "China Daily",
			Landing: Locator{Tag: "div", Class: "mai_l_t"},
			Dismiss: []string{"#", "/world/"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "div", ID: "Content"},
		},
		{
			Key:     "https://english.news.cn/home.htm",
			Name:    "Xinhua",
			Landing: Locator{Tag: "div", Class: "headnews"},
			Dismiss: []string{"#", "/live/", "/video/"},
			Title:   &Locator{Tag: "h1"},
			Article: &Locator{Tag: "div", ID: "detailContent"},
		},
		{
			Key:            "https://www.globaltimes.cn/index.html",
			Name:           "Global Times",
			Landing:        Locator{Tag: "div", Class: "news_section"},
			TargetPrefixes: []string{"/page/"},
			Dismiss:        []string{"#", "/live/", "/video/", "/opinion/", "/special-coverage/"},
			Title:          &Locator{Tag: "div", Class: "top_title"},
			Article:        &Locator{Tag: "div", Class: "article_right", TextOnly: true},
		},
		{
			Key:     "https://www.hindustantimes.com/",
			Name:    "Hindustan Times",
			Landing: Locator{Tag: "section", Class: "mainContainer"},
			Dismiss: []string{"#", "/cricket/", "/lifestyle/", "/sports/", "/entertainment/"},
			Title:   &Locator{Tag: "h1", Class: "hdg1"},
			Article: &Locator{Tag: "div", Class: "detail"},
		},
		{
			Key:          "https://japannews.yomiuri.co.jp/",
			Name:         "The Japan News",
			Landing:      Locator{Tag: "div", Class: "front_bloc1_wrap1"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/latestnews/", "/features/"},
			Title:        &Locator{Tag: "div", Class: "bloc_1", Nested: "h1"},
			Article:      &Locator{Tag: "div", ID: "p-article-block"},
		},
		{
			Key:          "https://www.rt.com/",
			Name:         "RT",
			Landing:      Locator{Tag: "ul", Class: "main-promobox__list"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/on-air/", "/video/"},
			Title:        &Locator{Tag: "h1", Class: "article__heading"},
			Article:      &Locator{Tag: "div", Class: "article__text"},
		},
		{
			Key:           "https://www.hurriyetdailynews.com/",
			Name:          "Hürriyet Daily News",
			Landing:       Locator{Tag: "div", Class: "container"},
			MinPathDigits: 6,
			Title:         &Locator{Tag: "h1"},
			Article:       &Locator{Tag: "div", Class: "content"},
		},
		{
			Key:          "https://www.timesofisrael.com/",
			Name:         "The Times of Israel",
			Landing:      Locator{Tag: "section"},
			GenericLinks: true,
			Dismiss:      []string{"#", "/liveblog", "/writers/", "/daily-briefing", "/blogs.", "/latest/"},
			Title:        &Locator{Tag: "h1", Class: "headline"},
			Article:      &Locator{Tag: "div", Class: "the-content"},
		},
		{
			Key:          "https://www.imf.org/en/News",
			Name:         "IMF",
			Landing:      Locator{Tag: "div", Class: "container-fluid"},
			GenericLinks: true,
			Dismiss: []string{
				"#", "/SearchNews", "/ar/news", "/Blogs/", "/Podcasts/", "/Videos/", "/Publications/",
			},
			Title: &Locator{Tag: "h2"},
			Article: &Locator{
				Tag:       "section",
				Recursive: true,
				Harvest:   []string{"h3", "h4", "p", "ul", "li"},
			},
		},
		{
			Key:           "https://www.weforum.org/stories",
			Name:          "World Economic Forum",
			Landing:       Locator{Tag: "div", Class: "wef-c7cl1o"},
			Dismiss:       []string{"#", "/blogs/", "/videos/", "/podcasts/"},
			MinPathDigits: 6,
			Title:         &Locator{Tag: "h1"},
			Article:       &Locator{Tag: "div", Class: "wef-zw4tnc", FindAll: true},
		},
		{
			Key:            "https://news.un.org/en/",
			Name:           "UN News",
			Landing:        Locator{Tag: "div", ID: "block-un-base-theme-content"},
			TargetPrefixes: []string{"/story/"},
			Title:          &Locator{Tag: "h1", Class: "title"},
			Article:        &Locator{Tag: "div", Class: "text-formatted"},
		},
	}.Normalize()
}
