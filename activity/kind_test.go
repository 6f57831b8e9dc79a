package activity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/i18n"
)

func TestKind(t *testing.T) {
	for _, kind := range activity.Kinds() {
		found, ok := activity.KindFromEventName(kind.EventName())
		assert.True(t, ok)
		assert.Equal(t, kind, found)
	}

	_, ok := activity.KindFromEventName(`\mod_book\event\chapter_viewed`)
	assert.False(t, ok)

	assert.Equal(t, "page_viewed", activity.KindPageViewed.String())
	assert.Equal(t, "Kind(0)", activity.KindUnknown.String())

	_, err := activity.KindUnknown.Label(i18n.Table{})
	assert.Error(t, err)
}

func TestEduLevel(t *testing.T) {
	assert.Equal(t, "participating", activity.LevelParticipating.String())
	assert.True(t, activity.LevelOther.Valid())
	assert.False(t, activity.EduLevel(-1).Valid())
	assert.Equal(t, "EduLevel(5)", activity.EduLevel(5).String())
}
