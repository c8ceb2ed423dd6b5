package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	ImportInterval    int
	APIAccessKey      string
	ClicksDBPath      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
