package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-rag-app/internal/service"
)

// SummaryDays is how many forecast days go into a generated summary.
const SummaryDays = 2

// FormatForecast renders the first days of forecast as the fixed text block
// shared by every generator. Values missing upstream print as N/A.
func FormatForecast(forecast *service.Forecast, locationName string, days int) string {
	if forecast == nil {
		return "No forecast data available."
	}

	n := max(0, min(days, forecast.Days()))

	lines := make([]string, 0, n+2)
	lines = append(lines, "Location: "+locationName, "")
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("Day %d (%s): Min temp: %s°C, Max temp: %s°C, Mean relative humidity: %s%%",
			i+1,
			forecast.Time[i],
			formatValue(forecast.TemperatureMin, i),
			formatValue(forecast.TemperatureMax, i),
			formatValue(forecast.RelativeHumidityMean, i),
		))
	}
	return strings.Join(lines, "\n")
}

func formatValue(series []*float64, i int) string {
	v, ok := service.Value(series, i)
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
