// Package snapshot owns the current snapshot of UI element records and the
// derived indices (role, token, test id) that the query engine reads.
// This is the in-memory storage layer for all indexed data.
package snapshot

// Role is the semantic role of a UI element.
type Role string

// The closed set of roles the collector may emit. Unknown roles from a
// collector are mapped to RoleGeneric before ingest.
const (
	RoleButton       Role = "button"
	RoleLink         Role = "link"
	RoleTextbox      Role = "textbox"
	RoleCheckbox     Role = "checkbox"
	RoleRadio        Role = "radio"
	RoleCombobox     Role = "combobox"
	RoleListbox      Role = "listbox"
	RoleOption       Role = "option"
	RoleMenu         Role = "menu"
	RoleMenuitem     Role = "menuitem"
	RoleTab          Role = "tab"
	RoleTabpanel     Role = "tabpanel"
	RoleDialog       Role = "dialog"
	RoleAlertdialog  Role = "alertdialog"
	RoleSwitch       Role = "switch"
	RoleSlider       Role = "slider"
	RoleSpinbutton   Role = "spinbutton"
	RoleSearchbox    Role = "searchbox"
	RoleHeading      Role = "heading"
	RoleImage        Role = "image"
	RoleNavigation   Role = "navigation"
	RoleMain         Role = "main"
	RoleRegion       Role = "region"
	RoleForm         Role = "form"
	RoleGrid         Role = "grid"
	RoleGridcell     Role = "gridcell"
	RoleRow          Role = "row"
	RoleRowgroup     Role = "rowgroup"
	RoleCell         Role = "cell"
	RoleColumnheader Role = "columnheader"
	RoleRowheader    Role = "rowheader"
	RoleTree         Role = "tree"
	RoleTreeitem     Role = "treeitem"
	RoleTooltip      Role = "tooltip"
	RoleStatus       Role = "status"
	RoleAlert        Role = "alert"
	RoleProgressbar  Role = "progressbar"
	RoleSeparator    Role = "separator"
	RoleGroup        Role = "group"
	RoleArticle      Role = "article"
	RoleGeneric      Role = "generic"
)

// knownRoles is the membership set for Valid.
var knownRoles = func() map[Role]struct{} {
	all := []Role{
		RoleButton, RoleLink, RoleTextbox, RoleCheckbox, RoleRadio,
		RoleCombobox, RoleListbox, RoleOption, RoleMenu, RoleMenuitem,
		RoleTab, RoleTabpanel, RoleDialog, RoleAlertdialog, RoleSwitch,
		RoleSlider, RoleSpinbutton, RoleSearchbox, RoleHeading, RoleImage,
		RoleNavigation, RoleMain, RoleRegion, RoleForm, RoleGrid,
		RoleGridcell, RoleRow, RoleRowgroup, RoleCell, RoleColumnheader,
		RoleRowheader, RoleTree, RoleTreeitem, RoleTooltip, RoleStatus,
		RoleAlert, RoleProgressbar, RoleSeparator, RoleGroup, RoleArticle,
		RoleGeneric,
	}
	m := make(map[Role]struct{}, len(all))
	for _, r := range all {
		m[r] = struct{}{}
	}
	return m
}()

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// StateBits is a bitfield over the visual/interaction state of an element.
type StateBits uint32

// State flag bit positions. These match the wire format produced by the
// collector and must not be reordered.
const (
	StateVisible  StateBits = 1 << 0
	StateEnabled  StateBits = 1 << 1
	StateChecked  StateBits = 1 << 2
	StateExpanded StateBits = 1 << 3
	StateFocused  StateBits = 1 << 4
	StateSelected StateBits = 1 << 5
	StatePressed  StateBits = 1 << 6
	StateReadonly StateBits = 1 << 7
	StateRequired StateBits = 1 << 8
	StateInvalid  StateBits = 1 << 9
	StateBusy     StateBits = 1 << 10
	StateHidden   StateBits = 1 << 11
	StateDisabled StateBits = 1 << 12
)

// Has reports whether all bits in flag are set.
func (s StateBits) Has(flag StateBits) bool {
	return s&flag == flag
}

// AttrTestID is the attrs key carrying the stable test identifier.
const AttrTestID = "data-testid"

// Rect is a bounding rectangle in viewport coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return float64(r.X) + float64(r.Width)/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return float64(r.Y) + float64(r.Height)/2 }

// Record describes one UI element observed at snapshot time.
// IDs are dense and unique within a single snapshot and are reassigned on
// every ingest. Fingerprints are stable across re-snapshots of logically
// the same element but are not guaranteed unique.
type Record struct {
	ID          uint32            `json:"id"`
	FrameID     uint16            `json:"frameId"`
	Role        Role              `json:"role"`
	Name        string            `json:"name"`
	StateBits   StateBits         `json:"stateBits"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	Context     []string          `json:"context,omitempty"`
	Rect        Rect              `json:"rect"`
	Fingerprint string            `json:"fingerprint"`
	TagName     string            `json:"tagName"`
}

// TestID returns the stable test identifier, if the collector captured one.
func (r *Record) TestID() (string, bool) {
	v, ok := r.Attrs[AttrTestID]
	return v, ok
}

// MatchStates is the subset of state flags surfaced on a Match. The optional
// flags are only present when set, mirroring the wire format.
type MatchStates struct {
	Visible  bool  `json:"visible"`
	Enabled  bool  `json:"enabled"`
	Checked  *bool `json:"checked,omitempty"`
	Expanded *bool `json:"expanded,omitempty"`
	Focused  *bool `json:"focused,omitempty"`
	Selected *bool `json:"selected,omitempty"`
}

// Actionability describes which agent actions are expected to succeed on
// an element, derived from role membership plus enabled+visible state.
type Actionability struct {
	Click  bool `json:"click"`
	Type   bool `json:"type"`
	Check  bool `json:"check"`
	Select bool `json:"select"`
	Scroll bool `json:"scroll"`
}

// Match is a scored, query-shaped projection of a Record.
type Match struct {
	ID            uint32        `json:"id"`
	Score         float64       `json:"score"`
	Role          Role          `json:"role"`
	Name          string        `json:"name"`
	States        MatchStates   `json:"states"`
	Context       []string      `json:"context"`
	Actionability Actionability `json:"actionability"`
	Rect          Rect          `json:"rect"`

	// Record points back at the source record in the store. Not serialized.
	Record *Record `json:"-"`
}

// Role membership sets for actionability derivation.
var (
	clickableRoles = map[Role]struct{}{
		RoleButton: {}, RoleLink: {}, RoleTab: {}, RoleMenuitem: {},
		RoleOption: {}, RoleCheckbox: {}, RoleRadio: {}, RoleSwitch: {},
	}
	typeableRoles = map[Role]struct{}{
		RoleTextbox: {}, RoleSearchbox: {}, RoleCombobox: {}, RoleSpinbutton: {},
	}
	checkableRoles = map[Role]struct{}{
		RoleCheckbox: {}, RoleRadio: {}, RoleSwitch: {},
	}
	selectableRoles = map[Role]struct{}{
		RoleOption: {}, RoleTab: {}, RoleTreeitem: {}, RoleGridcell: {},
	}
)

// DeriveActionability computes the action flags for a record.
func DeriveActionability(rec *Record) Actionability {
	visible := rec.StateBits.Has(StateVisible)
	actionable := visible && rec.StateBits.Has(StateEnabled)

	member := func(set map[Role]struct{}) bool {
		_, ok := set[rec.Role]
		return ok
	}

	return Actionability{
		Click:  actionable && member(clickableRoles),
		Type:   actionable && member(typeableRoles),
		Check:  actionable && member(checkableRoles),
		Select: actionable && member(selectableRoles),
		Scroll: visible,
	}
}

// DeriveStates projects the record's state bits into MatchStates.
func DeriveStates(rec *Record) MatchStates {
	states := MatchStates{
		Visible: rec.StateBits.Has(StateVisible),
		Enabled: rec.StateBits.Has(StateEnabled),
	}
	set := func(flag StateBits) *bool {
		if rec.StateBits.Has(flag) {
			v := true
			return &v
		}
		return nil
	}
	states.Checked = set(StateChecked)
	states.Expanded = set(StateExpanded)
	states.Focused = set(StateFocused)
	states.Selected = set(StateSelected)
	return states
}
