package trips

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// DecodeTripDetails parses a GTFS-RT feed message and extracts the TripUpdate
// for the given trip id. It returns an error when the buffer is not a valid
// feed or the trip is absent from it.
func DecodeTripDetails(buf []byte, tripID string) (*TripDetails, error) {
	fm := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(buf, fm); err != nil {
		return nil, fmt.Errorf("decode trip updates feed: %w", err)
	}

	for _, e := range fm.Entity {
		tu := e.TripUpdate
		if tu == nil || tu.Trip == nil || tu.Trip.TripId == nil {
			continue
		}
		if *tu.Trip.TripId != tripID {
			continue
		}
		return tripDetailsFromUpdate(tu), nil
	}
	return nil, fmt.Errorf("trip %s not present in feed", tripID)
}

func tripDetailsFromUpdate(tu *gtfsrtpb.TripUpdate) *TripDetails {
	td := &TripDetails{TripID: tu.Trip.GetTripId()}
	if tu.Trip.RouteId != nil {
		td.RouteID = *tu.Trip.RouteId
	}
	if tu.Trip.StartDate != nil {
		td.StartDate = *tu.Trip.StartDate
	}
	if tu.Vehicle != nil && tu.Vehicle.Id != nil {
		td.VehicleID = *tu.Vehicle.Id
	}

	td.StopTimes = make([]StopTime, 0, len(tu.StopTimeUpdate))
	for i, stu := range tu.StopTimeUpdate {
		if stu.StopId == nil {
			continue
		}
		st := StopTime{
			StopID:       *stu.StopId,
			StopSequence: i + 1,
			Relationship: RelationshipScheduled,
		}
		if stu.StopSequence != nil {
			st.StopSequence = int(*stu.StopSequence)
		}
		if stu.ScheduleRelationship != nil {
			st.Relationship = relationshipFromProto(*stu.ScheduleRelationship)
		}
		if stu.Arrival != nil {
			if stu.Arrival.Time != nil {
				t := *stu.Arrival.Time
				st.PredictedArrival = &t
			}
			if stu.Arrival.Delay != nil {
				d := *stu.Arrival.Delay
				st.ArrivalDelaySec = &d
			}
			st.ScheduledArrival = scheduledISO(stu.Arrival.Time, stu.Arrival.Delay)
		}
		if stu.Departure != nil {
			if stu.Departure.Time != nil {
				t := *stu.Departure.Time
				st.PredictedDeparture = &t
			}
			if stu.Departure.Delay != nil {
				d := *stu.Departure.Delay
				st.DepartureDelaySec = &d
			}
			st.ScheduledDeparture = scheduledISO(stu.Departure.Time, stu.Departure.Delay)
		}
		td.StopTimes = append(td.StopTimes, st)
	}
	return td
}

func relationshipFromProto(rel gtfsrtpb.TripUpdate_StopTimeUpdate_ScheduleRelationship) ScheduleRelationship {
	switch rel {
	case gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED:
		return RelationshipSkipped
	case gtfsrtpb.TripUpdate_StopTimeUpdate_NO_DATA:
		return RelationshipNoData
	case gtfsrtpb.TripUpdate_StopTimeUpdate_UNSCHEDULED:
		return RelationshipUnscheduled
	default:
		return RelationshipScheduled
	}
}

// scheduledISO reconstructs the scheduled time from prediction minus delay.
// The feed carries only the prediction and the deviation from schedule.
func scheduledISO(predicted *int64, delay *int32) string {
	if predicted == nil || delay == nil {
		return ""
	}
	return iso8601FromUnixSeconds(*predicted - int64(*delay))
}

func iso8601FromUnixSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
