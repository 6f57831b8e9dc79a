package activity

import "fmt"

// CRUD classifies the kind of data access an activity record represents.
type CRUD string

// Valid CRUD values.
const (
	CRUDCreate CRUD = "c"
	CRUDRead   CRUD = "r"
	CRUDUpdate CRUD = "u"
	CRUDDelete CRUD = "d"
)

// Valid reports whether c is one of the known CRUD values.
func (c CRUD) Valid() bool {
	switch c {
	case CRUDCreate, CRUDRead, CRUDUpdate, CRUDDelete:
		return true
	default:
		return false
	}
}

// EduLevel is the educational level of an activity, used by reports
// to tell participation from teaching.
type EduLevel int

// Educational levels.
const (
	LevelOther         EduLevel = 0
	LevelTeaching      EduLevel = 1
	LevelParticipating EduLevel = 2
)

func (l EduLevel) String() string {
	switch l {
	case LevelOther:
		return "other"
	case LevelTeaching:
		return "teaching"
	case LevelParticipating:
		return "participating"
	default:
		return fmt.Sprintf("EduLevel(%d)", int(l))
	}
}

// Valid reports whether l is one of the known educational levels.
func (l EduLevel) Valid() bool {
	return l >= LevelOther && l <= LevelParticipating
}

// Info is the fixed audit metadata of a Kind.
type Info struct {
	CRUD        CRUD
	EduLevel    EduLevel
	ObjectTable string
}
