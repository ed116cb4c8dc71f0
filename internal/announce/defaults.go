package announce

// Defaults returns the built-in announcement catalogue used when no
// definitions file is configured. Only the hourly chime is enabled; the rest
// are templates meant to be copied into a definitions file.
func Defaults() Definitions {
	return Definitions{
		Events: []Event{
			{
				Name:     "hourly-chime",
				Schedule: "0 0 * * * *",
				Kind:     RotatingAudioSet,
				Content:  "chime",
				Enabled:  true,
			},
			{
				Name:     "quarter-bell",
				Schedule: "0 15 * * * *",
				Kind:     DirectAudio,
				Content:  "bell.dca",
				Enabled:  false,
			},
			{
				Name:     "evening-call",
				Schedule: "0 55 20 * * *",
				Kind:     SynthesizedSpeech,
				Content:  "The evening gathering starts in five minutes.",
				Enabled:  false,
			},
		},
		Rotations: map[string][]string{
			"chime": {
				"chime/morning.dca",
				"chime/day.dca",
				"chime/evening.dca",
				"chime/night.dca",
			},
		},
	}
}
