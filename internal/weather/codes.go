package weather

// codeDescriptions maps WMO weather interpretation codes to the descriptions
// shown in the dashboard.
var codeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Drizzle: Light",
	53: "Drizzle: Moderate",
	55: "Drizzle: Dense",
	56: "Freezing drizzle: Light",
	57: "Freezing drizzle: Dense",
	61: "Rain: Slight",
	63: "Rain: Moderate",
	65: "Rain: Heavy",
	66: "Freezing rain: Light",
	67: "Freezing rain: Heavy",
	71: "Snow fall: Slight",
	73: "Snow fall: Moderate",
	75: "Snow fall: Heavy",
	77: "Snow grains",
	80: "Rain showers: Slight",
	81: "Rain showers: Moderate",
	82: "Rain showers: Violent",
	85: "Snow showers: Slight",
	86: "Snow showers: Heavy",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeCode returns the human-readable description for a WMO weather code.
// Codes outside the table come back as "Unknown".
func DescribeCode(code int) string {
	if desc, ok := codeDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}
