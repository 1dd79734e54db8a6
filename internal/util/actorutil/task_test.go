package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

type taskResult struct {
	Value int
	Err   error
}

func TestBackgroundTaskSuccess(t *testing.T) {

	var got taskResult
	NewBackgroundTask(nil, func() (*taskResult, error) {
		return &taskResult{Value: 42}, nil
	}).OnSuccess(func(r taskResult) {
		got = r
	}).Run()

	assert.Equal(t, 42, got.Value)
}

func TestBackgroundTaskRecover(t *testing.T) {

	assert := assert.New(t)

	var got taskResult
	NewBackgroundTask(nil, func() (*taskResult, error) {
		return nil, errors.New("charger offline")
	}).Recover(func(err error) taskResult {
		return taskResult{Err: err}
	}).OnSuccess(func(r taskResult) {
		got = r
	}).Run()

	assert.EqualError(got.Err, "charger offline")
}

func TestBackgroundTaskTimeout(t *testing.T) {

	assert := assert.New(t)

	var gotErr error
	successCalled := false
	NewBackgroundTaskNoError(nil, func() *taskResult {
		time.Sleep(500 * time.Millisecond)
		return &taskResult{Value: 1}
	}).WithTimeout(50 * time.Millisecond).OnError(func(err error) {
		gotErr = err
	}).OnSuccess(func(taskResult) {
		successCalled = true
	}).Run()

	assert.Error(gotErr)
	assert.False(successCalled)
}

func TestBackgroundTaskNilResult(t *testing.T) {

	var gotErr error
	NewBackgroundTaskNoError(nil, func() *taskResult {
		return nil
	}).OnError(func(err error) {
		gotErr = err
	}).Run()

	assert.Error(t, gotErr)
}

func TestActorStateNames(t *testing.T) {

	assert := assert.New(t)

	s := &ActorWithStates{}
	s.Become(namedState("idle"))
	assert.Equal("idle", s.StateName())
	s.BecomeStacked(namedState("fetching"))
	assert.Equal("fetching", s.StateName())
	s.UnbecomeStacked()
	assert.Equal("idle", s.StateName())
}

type namedState string

func (s namedState) Name() string {
	return string(s)
}

func (s namedState) Receive(actor.Context) {}
