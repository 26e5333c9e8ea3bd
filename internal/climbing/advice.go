package climbing

import "strings"

// Ideal ranges used when describing the chosen hour.
const (
	idealTempMin     = 2.0
	idealTempMax     = 13.0
	idealHumidityMin = 20.0
	idealHumidityMax = 40.0
	slipperyHumidity = 50.0
	idealWindMin     = 1.4
	idealWindMax     = 4.2
)

const perfectAdvice = "최적에 가까운 완벽한 조건입니다!"

// Advice summarises what stands between an hour and ideal conditions.
func Advice(h HourlySummary) string {
	var notes []string

	if t := h.Temperature; t != nil {
		if *t < idealTempMin {
			notes = append(notes, "온도가 낮아 손이 시릴 수 있습니다.")
		} else if *t > idealTempMax {
			notes = append(notes, "온도가 높아 그립감이 떨어질 수 있습니다.")
		}
	}

	if hum := h.Humidity; hum != nil {
		switch {
		case *hum > slipperyHumidity:
			notes = append(notes, "습도가 높아 바위가 미끄러울 수 있습니다.")
		case *hum > idealHumidityMax:
			notes = append(notes, "조금 미끄러울 수 있습니다.")
		case *hum < idealHumidityMin:
			notes = append(notes, "습도가 낮아 건조합니다.")
		}
	}

	if w := h.WindSpeed; w != nil {
		if *w < idealWindMin {
			notes = append(notes, "바람이 약해 바위가 덜 마를 수 있습니다.")
		} else if *w > idealWindMax {
			notes = append(notes, "바람이 강해 체온 유지에 주의하세요.")
		}
	}

	if h.Precipitation > 0 {
		notes = append(notes, "비/눈이 있어 등반이 어렵습니다.")
	}

	if len(notes) == 0 {
		return perfectAdvice
	}
	return strings.Join(notes, " ")
}
