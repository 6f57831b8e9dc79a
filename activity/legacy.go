package activity

// LegacyModule is the module name legacy log rows are filed under.
const LegacyModule = "icontent"

// LegacyRow is the record representation expected by the legacy log.
type LegacyRow struct {
	CourseID          int64
	Module            string
	Action            string
	URL               string
	ObjectID          int64
	ContextInstanceID int64
}

// Values returns the row as the ordered 6-tuple stored in the legacy log:
// course id, module, action, url, object id, context instance id.
func (r LegacyRow) Values() []any {
	return []any{r.CourseID, r.Module, r.Action, r.URL, r.ObjectID, r.ContextInstanceID}
}
