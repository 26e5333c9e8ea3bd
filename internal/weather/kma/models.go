package kma

// apiResponse is the envelope shared by the village forecast endpoints.
type apiResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			DataType string `json:"dataType"`
			Items    struct {
				Item []item `json:"item"`
			} `json:"items"`
			PageNo     int `json:"pageNo"`
			NumOfRows  int `json:"numOfRows"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// item is one forecast (fcst*) or nowcast (obsrValue) row.
type item struct {
	BaseDate  string `json:"baseDate"`
	BaseTime  string `json:"baseTime"`
	Category  string `json:"category"`
	FcstDate  string `json:"fcstDate,omitempty"`
	FcstTime  string `json:"fcstTime,omitempty"`
	FcstValue string `json:"fcstValue,omitempty"`
	ObsrValue string `json:"obsrValue,omitempty"`
	NX        int    `json:"nx"`
	NY        int    `json:"ny"`
}

// Result codes returned in the response header.
const (
	resultOK                = "00"
	resultNoData            = "03"
	resultKeyNotRegistered  = "30"
	resultServiceKeyExpired = "31"
)

// KMA category codes.
const (
	codeTemperature   = "TMP"
	codeTemperature1H = "T1H"
	codeHumidity      = "REH"
	codeWindSpeed     = "WSD"
	codeWindDirection = "VEC"
	codeSky           = "SKY"
	codePrecipitation = "PTY"
)
