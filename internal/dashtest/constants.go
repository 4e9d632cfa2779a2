package dashtest

// HTTP status code constants.
const (
	StatusOK           = 200
	StatusUnauthorized = 401
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)
