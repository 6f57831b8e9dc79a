package activity

import (
	"fmt"

	"github.com/icontent-lms/go-icontent/i18n"
)

// Component is the plugin component owning the activity records,
// also used as namespace for their localized strings.
const Component = "mod_icontent"

// Kind enumerates the closed set of activity records.
type Kind uint8

// Kinds of activity records.
const (
	KindUnknown Kind = iota
	KindPageViewed
)

type kindDescriptor struct {
	eventName string
	nameKey   string
	action    string
	target    string
	info      Info
}

var kinds = map[Kind]kindDescriptor{
	KindPageViewed: {
		eventName: `\mod_icontent\event\page_viewed`,
		nameKey:   "eventpageviewed",
		action:    "viewed",
		target:    "page",
		info: Info{
			CRUD:        CRUDRead,
			EduLevel:    LevelParticipating,
			ObjectTable: PagesTable,
		},
	},
}

// KindFromEventName returns the Kind registered with the fully qualified
// event name, e.g. `\mod_icontent\event\page_viewed`.
func KindFromEventName(name string) (Kind, bool) {
	for kind, descriptor := range kinds {
		if descriptor.eventName == name {
			return kind, true
		}
	}

	return KindUnknown, false
}

// Kinds returns every known Kind.
func Kinds() []Kind {
	return []Kind{KindPageViewed}
}

// EventName returns the fully qualified event name of the Kind.
func (k Kind) EventName() string { return kinds[k].eventName }

// Info returns the fixed audit metadata of the Kind.
func (k Kind) Info() Info { return kinds[k].info }

func (k Kind) String() string {
	if descriptor, ok := kinds[k]; ok {
		return descriptor.target + "_" + descriptor.action
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Label returns the localized name of the Kind, looked up through tr.
func (k Kind) Label(tr i18n.Translator) (string, error) {
	descriptor, ok := kinds[k]
	if !ok {
		return "", fmt.Errorf("activity.Kind: no name for %s", k)
	}

	label, err := tr.String(descriptor.nameKey, Component)
	if err != nil {
		return "", fmt.Errorf("activity.Kind: failed to resolve name of %s, %w", k, err)
	}

	return label, nil
}
