package postgres

// SQL queries for community event and attendance storage

const (
	// querySaveCommunityEvent inserts a community event idempotently by id.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveCommunityEvent = `
		INSERT INTO community_events (
			id, title, description, activity_type_id,
			lat, lon, location_name, venue, city,
			start_time, organizer_id, organizer_name, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`

	// queryGetCommunityEvent fetches one event by id, with its live attendee
	// count folded in from the attendance table.
	queryGetCommunityEvent = `
		SELECT
			e.id, e.title, e.description, e.activity_type_id,
			e.lat, e.lon, e.location_name, e.venue, e.city,
			e.start_time, e.organizer_id, e.organizer_name, e.created_at,
			COUNT(a.user_id) AS attendee_count
		FROM community_events e
		LEFT JOIN event_attendance a ON a.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id
	`

	// queryFetchNearbyCommunityEvents fetches upcoming events inside a
	// lat/lon bounding box, soonest first. The box over-approximates the
	// search radius; the exact great-circle cut happens in the merge stage.
	queryFetchNearbyCommunityEvents = `
		SELECT
			e.id, e.title, e.description, e.activity_type_id,
			e.lat, e.lon, e.location_name, e.venue, e.city,
			e.start_time, e.organizer_id, e.organizer_name, e.created_at,
			COUNT(a.user_id) AS attendee_count
		FROM community_events e
		LEFT JOIN event_attendance a ON a.event_id = e.id
		WHERE e.lat BETWEEN $1 AND $2
		  AND e.lon BETWEEN $3 AND $4
		  AND e.start_time > NOW()
		GROUP BY e.id
		ORDER BY e.start_time ASC
		LIMIT $5
	`

	// queryMarkAttended records a join idempotently per (user, event).
	queryMarkAttended = `
		INSERT INTO event_attendance (user_id, event_id, attended_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING user_id
	`
)
