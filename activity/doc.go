// Package activity contains the activity records emitted by the
// interactive content (mod_icontent) plugin.
//
// Records are immutable values. They form a closed set, one variant per
// Kind, all implementing the Record interface. A Record is created by its
// factory function (e.g. NewPageViewed) and then handed over to the
// eventlog.Dispatcher, which stamps the actor and time, validates it,
// and persists it.
package activity
