package trips

// ScheduleRelationship mirrors the GTFS-RT stop-time schedule relationship.
type ScheduleRelationship string

const (
	RelationshipScheduled   ScheduleRelationship = "SCHEDULED"
	RelationshipSkipped     ScheduleRelationship = "SKIPPED"
	RelationshipNoData      ScheduleRelationship = "NO_DATA"
	RelationshipUnscheduled ScheduleRelationship = "UNSCHEDULED"
)

// StopTime is one stop call within a trip. Predicted times are unix epoch
// seconds; nil means the feed carried no prediction. Scheduled times are
// ISO-8601 strings derived from prediction minus delay, empty when unknown.
type StopTime struct {
	StopID             string               `json:"stopId"`
	StopSequence       int                  `json:"stopSequence"`
	StopName           string               `json:"stopName,omitempty"`
	ScheduledArrival   string               `json:"scheduledArrival,omitempty"`
	ScheduledDeparture string               `json:"scheduledDeparture,omitempty"`
	PredictedArrival   *int64               `json:"predictedArrival,omitempty"`
	PredictedDeparture *int64               `json:"predictedDeparture,omitempty"`
	ArrivalDelaySec    *int32               `json:"arrivalDelaySec,omitempty"`
	DepartureDelaySec  *int32               `json:"departureDelaySec,omitempty"`
	Relationship       ScheduleRelationship `json:"scheduleRelationship"`
}

// TripDetails is the payload cached and rendered per trip.
type TripDetails struct {
	TripID    string     `json:"tripId"`
	RouteID   string     `json:"routeId,omitempty"`
	StartDate string     `json:"startDate,omitempty"` // YYYYMMDD
	VehicleID string     `json:"vehicleId,omitempty"`
	StopTimes []StopTime `json:"stopTimes"`
}
