package version

// Any is the Check value to use when no optimistic concurrency check
// should be carried out on append.
var Any = CheckAny{}

// Check is a sum type of the version checks an Event Store supports on append.
type Check interface {
	isVersionCheck()
}

// CheckAny skips the version check.
type CheckAny struct{}

func (CheckAny) isVersionCheck() {}

// CheckExact requires the Event Stream to be at exactly this version
// before the new events are appended.
type CheckExact Version

func (CheckExact) isVersionCheck() {}
