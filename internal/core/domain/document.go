package domain

import "math"

// Category is one of the fixed scoring dimensions of a Document.
type Category string

// Known categories. The values double as payload and column names.
const (
	CategoryCO2                Category = "co2_score"
	CategoryReduction          Category = "reduk_score"
	CategoryRegulation         Category = "regul_score"
	CategoryReporting          Category = "report_score"
	CategorySustainableFinance Category = "sustfin_score"
)

// Score bounds shared by every category.
const (
	MinCategoryScore = 0.0
	MaxCategoryScore = 100.0
)

// Categories returns every category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryCO2,
		CategoryReduction,
		CategoryRegulation,
		CategoryReporting,
		CategorySustainableFinance,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCO2, CategoryReduction, CategoryRegulation, CategoryReporting, CategorySustainableFinance:
		return true
	}
	return false
}

// Owner identifies the user who submitted a Document.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Document is the metadata record of one submitted link.
// Its chunks live in a separate store and reference it by LinkID.
type Document struct {
	// ID is the unique identifier for the link.
	ID string `json:"id"`

	// URL is the location the link points to.
	URL string `json:"url"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// Name is an optional short display name.
	Name string `json:"name,omitempty"`

	// LinkType classifies the link (article, report, regulation...).
	LinkType string `json:"link_type"`

	// Summary is free text describing the link.
	Summary string `json:"summary"`

	CO2Score                float64 `json:"co2_score"`
	ReductionScore          float64 `json:"reduk_score"`
	RegulationScore         float64 `json:"regul_score"`
	ReportingScore          float64 `json:"report_score"`
	SustainableFinanceScore float64 `json:"sustfin_score"`

	// User is the submitting user.
	User Owner `json:"user"`
}

// Score returns the document's value for category c.
func (d *Document) Score(c Category) (float64, bool) {
	switch c {
	case CategoryCO2:
		return d.CO2Score, true
	case CategoryReduction:
		return d.ReductionScore, true
	case CategoryRegulation:
		return d.RegulationScore, true
	case CategoryReporting:
		return d.ReportingScore, true
	case CategorySustainableFinance:
		return d.SustainableFinanceScore, true
	}
	return 0, false
}

// SetScore sets the document's value for category c.
// It returns false for an unknown category.
func (d *Document) SetScore(c Category, v float64) bool {
	switch c {
	case CategoryCO2:
		d.CO2Score = v
	case CategoryReduction:
		d.ReductionScore = v
	case CategoryRegulation:
		d.RegulationScore = v
	case CategoryReporting:
		d.ReportingScore = v
	case CategorySustainableFinance:
		d.SustainableFinanceScore = v
	default:
		return false
	}
	return true
}

// Chunk is a fragment of a link's text and the unit of similarity search.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// LinkID references the owning Document. Not enforced by any store.
	LinkID string `json:"link_id"`

	// Content is the chunk text.
	Content string `json:"chunk"`

	// URL repeats the owning document's URL for display.
	URL string `json:"url,omitempty"`

	// Embedding is the vector representation for semantic search.
	Embedding []float32 `json:"-"`
}

// DocumentPatch is a partial update of a Document.
// Nil fields are left unchanged. ID and owner cannot be patched.
type DocumentPatch struct {
	URL      *string `json:"url,omitempty"`
	Title    *string `json:"title,omitempty"`
	Name     *string `json:"name,omitempty"`
	LinkType *string `json:"link_type,omitempty"`
	Summary  *string `json:"summary,omitempty"`

	CO2Score                *float64 `json:"co2_score,omitempty"`
	ReductionScore          *float64 `json:"reduk_score,omitempty"`
	RegulationScore         *float64 `json:"regul_score,omitempty"`
	ReportingScore          *float64 `json:"report_score,omitempty"`
	SustainableFinanceScore *float64 `json:"sustfin_score,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *DocumentPatch) IsEmpty() bool {
	return p.URL == nil && p.Title == nil && p.Name == nil && p.LinkType == nil &&
		p.Summary == nil && len(p.scores()) == 0
}

// Validate checks every provided score lies within the category bounds.
func (p *DocumentPatch) Validate() error {
	for c, v := range p.scores() {
		if err := ValidateCategoryScore(c, v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCategoryScore rejects NaN and values outside the category bounds.
func ValidateCategoryScore(c Category, v float64) error {
	if math.IsNaN(v) || v < MinCategoryScore || v > MaxCategoryScore {
		return &ValidationError{Field: string(c), Reason: "must be between 0 and 100"}
	}
	return nil
}

// Apply merges the patch onto d. Provided values override, others are kept.
func (p *DocumentPatch) Apply(d *Document) {
	if p.URL != nil {
		d.URL = *p.URL
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.LinkType != nil {
		d.LinkType = *p.LinkType
	}
	if p.Summary != nil {
		d.Summary = *p.Summary
	}
	for c, v := range p.scores() {
		d.SetScore(c, v)
	}
}

func (p *DocumentPatch) scores() map[Category]float64 {
	out := make(map[Category]float64)
	set := func(c Category, v *float64) {
		if v != nil {
			out[c] = *v
		}
	}
	set(CategoryCO2, p.CO2Score)
	set(CategoryReduction, p.ReductionScore)
	set(CategoryRegulation, p.RegulationScore)
	set(CategoryReporting, p.ReportingScore)
	set(CategorySustainableFinance, p.SustainableFinanceScore)
	return out
}

// NewLink is an ingestion request: link metadata plus pre-split chunk texts.
type NewLink struct {
	Document Document
	Chunks   []string
}
