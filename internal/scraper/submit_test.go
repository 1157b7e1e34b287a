package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmitClicksFirstCandidate(t *testing.T) {
	session := newFakeSession()
	session.elements["input[type='submit'][value*='Score']"] = 1

	submitted := NewQuizSubmitter(session, time.Second).Submit(context.Background())
	assert.True(t, submitted)
	assert.True(t, session.submitted)
}

func TestSubmitFallsThroughCandidates(t *testing.T) {
	session := newFakeSession()
	session.elements["button[type='submit']"] = 1

	submitted := NewQuizSubmitter(session, time.Second).Submit(context.Background())
	assert.True(t, submitted)
	assert.Contains(t, session.clicked, "button[type='submit']#0")
}

func TestSubmitNoControlFound(t *testing.T) {
	session := newFakeSession()
	assert.False(t, NewQuizSubmitter(session, time.Second).Submit(context.Background()))
}

func TestSubmitWaitCascadeMarkers(t *testing.T) {
	session := newFakeSession()
	session.elements["input[type='submit'][value*='Submit']"] = 1
	session.idleErr = errors.New("network never idle")
	session.elements[".questionReview"] = 5

	start := time.Now()
	submitted := NewQuizSubmitter(session, 10*time.Millisecond).Submit(context.Background())
	assert.True(t, submitted)
	// Results markers satisfied the wait; the settle delay never ran.
	assert.Less(t, time.Since(start), time.Second)
}

func TestSubmitWaitCascadeAlwaysProceeds(t *testing.T) {
	session := newFakeSession()
	session.elements["input[value*='Finish']"] = 1
	session.idleErr = errors.New("network never idle")

	sub := NewQuizSubmitter(session, 10*time.Millisecond)
	sub.settleDelay = 10 * time.Millisecond
	assert.True(t, sub.Submit(context.Background()))
}
