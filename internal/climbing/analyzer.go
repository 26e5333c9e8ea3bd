package climbing

import "strings"

// Analyzer thresholds. These describe how a single reading feels on the rock
// and intentionally differ from the hour ranking rubric in Score.
const (
	analyzeTempMin     = 5.0
	analyzeTempMax     = 15.0
	analyzeHumidityMin = 30.0
	analyzeHumidityMax = 50.0
	analyzeWindMin     = 5.0
	analyzeWindMax     = 15.0
	minDewPointSpread  = 10.0
)

var precipitationKeywords = []string{"비", "눈", "소나기", "빗방울", "rain", "snow", "shower", "drizzle", "sleet"}

// Analyze evaluates one reading factor by factor. IsOptimal holds exactly when
// every factor is good. A condition that mentions precipitation overrides the
// overall message and adds a postpone recommendation.
func Analyze(c Conditions) Assessment {
	recs := make([]string, 0, 5)

	temp := FactorStatus{IsGood: c.Temperature >= analyzeTempMin && c.Temperature <= analyzeTempMax}
	switch {
	case c.Temperature < analyzeTempMin:
		temp.Message = "온도가 너무 낮습니다. 체온 유지에 주의하세요."
		recs = append(recs, "따뜻한 옷을 입고 등반하세요.")
	case c.Temperature > analyzeTempMax:
		temp.Message = "온도가 다소 높습니다. 그늘진 곳을 찾아보세요."
		recs = append(recs, "이른 아침이나 늦은 오후에 등반하는 것을 고려해보세요.")
	default:
		temp.Message = "온도가 클라이밍에 최적입니다!"
	}

	hum := FactorStatus{IsGood: c.Humidity >= analyzeHumidityMin && c.Humidity <= analyzeHumidityMax}
	switch {
	case c.Humidity > analyzeHumidityMax:
		hum.Message = "습도가 높아 바위가 미끄러울 수 있습니다."
		recs = append(recs, "바위의 상태를 주의 깊게 확인하세요.")
	case c.Humidity < analyzeHumidityMin:
		hum.Message = "습도가 매우 낮습니다. 수분 섭취에 주의하세요."
		recs = append(recs, "충분한 물을 마시고 등반하세요.")
	default:
		hum.Message = "습도가 클라이밍에 적당합니다."
	}

	dew := FactorStatus{IsGood: c.Temperature-c.DewPoint >= minDewPointSpread}
	if dew.IsGood {
		dew.Message = "이슬점이 적당하여 바위가 건조합니다."
	} else {
		dew.Message = "이슬점이 높아 바위가 다소 젖을 수 있습니다."
		recs = append(recs, "바위의 마찰력을 주의 깊게 확인하세요.")
	}

	// Calm air is not a hazard, so it carries no recommendation.
	wind := FactorStatus{IsGood: c.WindSpeed >= analyzeWindMin && c.WindSpeed <= analyzeWindMax}
	switch {
	case c.WindSpeed < analyzeWindMin:
		wind.Message = "바람이 거의 없습니다."
	case c.WindSpeed > analyzeWindMax:
		wind.Message = "바람이 강합니다. 체온 유지에 주의하세요."
		recs = append(recs, "따뜻한 옷을 추가로 준비하세요.")
	default:
		wind.Message = "바람이 적당하여 바위를 건조하게 유지합니다."
	}

	a := Assessment{
		IsOptimal:         temp.IsGood && hum.IsGood && dew.IsGood && wind.IsGood,
		TemperatureStatus: temp,
		HumidityStatus:    hum,
		WindStatus:        wind,
		DewPointStatus:    dew,
	}

	switch {
	case mentionsPrecipitation(c.Condition):
		a.OverallMessage = "비/눈이 예상되어 등반을 권장하지 않습니다. ⚠️"
		recs = append(recs, "날씨가 개선될 때까지 등반을 연기하는 것이 좋습니다.")
	case a.IsOptimal:
		a.OverallMessage = "현재 날씨가 클라이밍에 최적의 조건입니다! 🎉"
	default:
		a.OverallMessage = "클라이밍이 가능하지만, 아래 주의사항을 확인하세요."
	}
	a.Recommendations = recs

	return a
}

func mentionsPrecipitation(condition string) bool {
	c := strings.ToLower(condition)
	if c == "" {
		return false
	}
	for _, kw := range precipitationKeywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}
