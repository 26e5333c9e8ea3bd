package kma

import "math"

// Lambert conformal conic projection parameters for the KMA 5km forecast grid.
const (
	earthRadiusKm = 6371.00877
	gridKm        = 5.0
	stdLat1       = 30.0
	stdLat2       = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43 // grid x of the origin, 1-based
	originY       = 136
)

// Grid is a cell of the KMA forecast grid.
type Grid struct {
	NX int
	NY int
}

var projection = newLambert()

type lambert struct {
	re, sn, sf, ro float64
	olon           float64
}

func newLambert() lambert {
	const degrad = math.Pi / 180.0
	re := earthRadiusKm / gridKm
	slat1 := stdLat1 * degrad
	slat2 := stdLat2 * degrad
	olat := originLat * degrad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)
	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn
	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	return lambert{re: re, sn: sn, sf: sf, ro: ro, olon: originLon * degrad}
}

// ToGrid converts a WGS84 latitude/longitude into KMA grid coordinates.
func ToGrid(lat, lon float64) Grid {
	const degrad = math.Pi / 180.0
	p := projection

	ra := math.Tan(math.Pi*0.25 + lat*degrad*0.5)
	ra = p.re * p.sf / math.Pow(ra, p.sn)

	theta := lon*degrad - p.olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= p.sn

	return Grid{
		NX: int(math.Floor(ra*math.Sin(theta) + originX + 0.5)),
		NY: int(math.Floor(p.ro - ra*math.Cos(theta) + originY + 0.5)),
	}
}
