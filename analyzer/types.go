package analyzer

// PageSnapshot is a read-only capture of everything the analyzer looks at.
// It is built once (see the capture package) and never mutated afterwards.
type PageSnapshot struct {
	URL          string             `json:"url"`
	Hostname     string             `json:"hostname"`
	Title        string             `json:"title"`
	Meta         []MetaElement      `json:"meta"`
	HasCanonical bool               `json:"hasCanonical"`
	CanonicalURL string             `json:"canonicalUrl"`
	Robots       string             `json:"robots"`
	Headings     []HeadingElement   `json:"headings"`
	Anchors      []AnchorElement    `json:"anchors"`
	Alternates   []AlternateElement `json:"alternates"`
	Images       []ImageElement     `json:"images"`
	JSONLD       []string           `json:"jsonLd"`
}

// MetaElement is a single <meta> element
type MetaElement struct {
	Name     string `json:"name"`
	Property string `json:"property"`
	Content  string `json:"content"`
}

// HeadingElement is an <h1>..<h6> element with its trimmed text
type HeadingElement struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// AnchorElement holds the resolved absolute href of an <a> element
type AnchorElement struct {
	Href string `json:"href"`
}

// AlternateElement is a <link rel="alternate" hreflang="..."> element
type AlternateElement struct {
	Lang string `json:"lang"`
	Href string `json:"href"`
}

// ImageElement is an <img> element with its resolved src
type ImageElement struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Report represents the complete analysis of a page snapshot
type Report struct {
	URL             string           `json:"url"`
	General         GeneralAnalysis  `json:"general"`
	Headings        HeadingAnalysis  `json:"headings"`
	Links           LinkAnalysis     `json:"links"`
	Hreflang        HreflangAnalysis `json:"hreflang"`
	Images          ImageAnalysis    `json:"images"`
	Schema          SchemaAnalysis   `json:"schema"`
	SEOScore        int              `json:"seoScore"`
	ScoreDeductions []ScoreDeduction `json:"scoreDeductions"`
	Recommendations []string         `json:"recommendations"`
}

type GeneralAnalysis struct {
	MetaTitle        string   `json:"metaTitle"`
	MetaDescription  string   `json:"metaDescription"`
	CanonicalURL     string   `json:"canonicalUrl"`
	Indexable        bool     `json:"indexable"`
	RobotsTxtBlocked bool     `json:"robotsTxtBlocked"`
	MetaTags         []string `json:"metaTags"`
}

type HeadingAnalysis struct {
	Structure     []HeadingEntry `json:"structure"`
	WordRelevance WordRelevance  `json:"wordRelevance"`
}

type HeadingEntry struct {
	Tag   string `json:"tag"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// WordRelevance buckets short headings by their exact word count
type WordRelevance struct {
	OneWord    []string `json:"oneWord"`
	TwoWords   []string `json:"twoWords"`
	ThreeWords []string `json:"threeWords"`
	FourWords  []string `json:"fourWords"`
}

type LinkAnalysis struct {
	Internal []LinkEntry `json:"internal"`
	External []LinkEntry `json:"external"`
}

// LinkEntry is a classified anchor. Redirect is never verified and is
// always false.
type LinkEntry struct {
	URL      string `json:"url"`
	Internal bool   `json:"internal"`
	Redirect bool   `json:"redirect"`
}

type HreflangAnalysis struct {
	Tags   []HreflangTag   `json:"tags"`
	Issues []HreflangIssue `json:"issues"`
}

type HreflangTag struct {
	Lang string `json:"lang"`
	Href string `json:"href"`
}

type ImageAnalysis struct {
	ImagesWithAlt    []ImageEntry `json:"imagesWithAlt"`
	ImagesWithoutAlt []ImageEntry `json:"imagesWithoutAlt"`
}

type ImageEntry struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type SchemaAnalysis struct {
	PresentSchemas []string                  `json:"presentSchemas"`
	SchemaDetails  map[string]map[string]any `json:"schemaDetails"`
}

// ScoreDeduction records one scoring rule that fired
type ScoreDeduction struct {
	Criterion Criterion `json:"criterion"`
	Points    int       `json:"points"`
}
