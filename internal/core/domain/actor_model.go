package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_STORE        = "store"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// Store

type GetStateRequest struct {
	ActorRequestMixIn
}

type GetStateResponse struct {
	ActorResponseMixIn
	State AppState
}

type DispatchRequest struct {
	ActorRequestMixIn
	Action Action
}

// DispatchWithRequest builds the action from the current state inside the
// store, so reading the state and applying the action happen in one step.
type DispatchWithRequest struct {
	ActorRequestMixIn
	Build func(AppState) Action
}

type DispatchResponse struct {
	ActorResponseMixIn
	Revision uint64
}

// StateChangedEvent is published on the event stream after every applied action.
type StateChangedEvent struct {
	Action Action
	State  AppState
}

// Charger poller

type FetchUnifiedResponse struct {
	ActorResponseMixIn
	Unified RawSnapshot
}

type FetchSystemResponse struct {
	ActorResponseMixIn
	System *System
}

// MQTT

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Health

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
