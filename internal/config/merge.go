package config

// fields maps command line flag names to the Config field they set.
var fields = map[string]func(dst, src *Config){
	"input":          func(d, s *Config) { d.Inputs = s.Inputs },
	"output":         func(d, s *Config) { d.OutputVideo = s.OutputVideo },
	"frames-dir":     func(d, s *Config) { d.FramesDir = s.FramesDir },
	"width":          func(d, s *Config) { d.Width = s.Width },
	"height":         func(d, s *Config) { d.Height = s.Height },
	"preset":         func(d, s *Config) { d.Preset = s.Preset },
	"fps":            func(d, s *Config) { d.FPS = s.FPS },
	"duration":       func(d, s *Config) { d.TotalDuration = s.TotalDuration },
	"image-duration": func(d, s *Config) { d.ImageDuration = s.ImageDuration },
	"axis":           func(d, s *Config) { d.Axis = s.Axis },
	"pinning":        func(d, s *Config) { d.Pinning = s.Pinning },
	"region":         func(d, s *Config) { d.Region = s.Region },
	"host-offset":    func(d, s *Config) { d.HostOffset = s.HostOffset },
	"workers":        func(d, s *Config) { d.Workers = s.Workers },
	"dpi":            func(d, s *Config) { d.DPI = s.DPI },
	"scaling":        func(d, s *Config) { d.Scaling = s.Scaling },
	"encoder":        func(d, s *Config) { d.VideoEncoder = s.VideoEncoder },
	"quality":        func(d, s *Config) { d.Quality = s.Quality },
	"audio":          func(d, s *Config) { d.AudioPath = s.AudioPath },
	"audio-sync":     func(d, s *Config) { d.AudioSync = s.AudioSync },
	"scenario":       func(d, s *Config) { d.ScenarioInput = s.ScenarioInput },
	"scenario-out":   func(d, s *Config) { d.ScenarioOutput = s.ScenarioOutput },
	"stats":          func(d, s *Config) { d.ShowStats = s.ShowStats },
	"debug":          func(d, s *Config) { d.Debug = s.Debug },
	"preview":        func(d, s *Config) { d.Preview = s.Preview },
	"log-level":      func(d, s *Config) { d.LogLevel = s.LogLevel },
	"log-file":       func(d, s *Config) { d.LogFile = s.LogFile },
}

// FlagNames lists the flags Merge knows about.
func FlagNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

// Merge copies from file every field whose flag was not set explicitly
// on the command line, so flags win over the config file.
func Merge(dst *Config, file Config, changed func(flag string) bool) {
	for name, set := range fields {
		if changed != nil && changed(name) {
			continue
		}
		set(dst, &file)
	}
}
