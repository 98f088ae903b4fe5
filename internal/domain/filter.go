package domain

// Criteria selects which questions a session draws from.
//
// A Criteria value is fixed for the whole lifetime of a session: the
// session manager captures it once at start and reuses the same value on
// restart, so a session can never drift to a different pool mid-way.
type Criteria struct {
	Category      Category
	SubCategories []string // empty means all sub-categories of Category
	Regulation    RegulationFilter
	Practice      bool // bypass the due-date gate entirely
	Box           int  // >0 restricts to records currently in that box
	BatchSize     int
}

// Normalized returns a copy with defaults applied.
func (c Criteria) Normalized(defaultBatchSize int) Criteria {
	if c.Regulation == "" {
		c.Regulation = RegulationFilterAll
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

// Validate checks the criteria and collects all errors.
func (c Criteria) Validate() error {
	var errs []FieldError

	if !c.Category.IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "must be SIGNAL or OPERATIONS"})
	}
	if c.Regulation != "" && !c.Regulation.IsValid() {
		errs = append(errs, FieldError{Field: "regulation", Message: "must be DS301, DV301, BOTH, or ALL"})
	}
	for _, sc := range c.SubCategories {
		if sc == "" {
			errs = append(errs, FieldError{Field: "sub_categories", Message: "must not contain empty values"})
			break
		}
	}
	if c.Box < 0 || c.Box > MaxBoxNumber {
		errs = append(errs, FieldError{Field: "box", Message: "must be between 0 and 5"})
	}
	if c.BatchSize < 0 || c.BatchSize > 200 {
		errs = append(errs, FieldError{Field: "batch_size", Message: "must be between 0 and 200"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
