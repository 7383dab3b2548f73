package geo

import "math/rand"

// City is one entry of the fixed sampling catalog.
type City struct {
	Name          string
	Country       string
	Lat           float64
	Lon           float64
	UrbanRadiusKm float64
}

// Region identifies a named index-range subset of the city catalog.
type Region int

const (
	RegionWorld Region = iota
	RegionBR
	RegionUS
	RegionEU
)

// Catalog index ranges per region. Cities are laid out BR, US, EU, then the
// rest of the world, so each region is a contiguous slice of the table.
const (
	brStart, brEnd = 0, 30
	usStart, usEnd = 30, 60
	euStart, euEnd = 60, 100
)

var cities = []City{
	// Brazil [0, 30)
	{"Sao Paulo", "BR", -23.550520, -46.633308, 40},
	{"Rio de Janeiro", "BR", -22.906847, -43.172897, 35},
	{"Brasilia", "BR", -15.793889, -47.882778, 25},
	{"Salvador", "BR", -12.977749, -38.501630, 22},
	{"Fortaleza", "BR", -3.731862, -38.526670, 20},
	{"Belo Horizonte", "BR", -19.916681, -43.934493, 25},
	{"Manaus", "BR", -3.119028, -60.021731, 18},
	{"Curitiba", "BR", -25.428954, -49.267137, 20},
	{"Recife", "BR", -8.057838, -34.882897, 18},
	{"Porto Alegre", "BR", -30.034647, -51.217658, 20},
	{"Belem", "BR", -1.455754, -48.490180, 15},
	{"Goiania", "BR", -16.686891, -49.264794, 16},
	{"Guarulhos", "BR", -23.454410, -46.533414, 14},
	{"Campinas", "BR", -22.909938, -47.062633, 16},
	{"Sao Luis", "BR", -2.529722, -44.302778, 13},
	{"Maceio", "BR", -9.665980, -35.735139, 12},
	{"Natal", "BR", -5.794480, -35.211000, 12},
	{"Teresina", "BR", -5.091944, -42.803611, 12},
	{"Campo Grande", "BR", -20.469711, -54.620121, 13},
	{"Joao Pessoa", "BR", -7.119495, -34.845012, 11},
	{"Santos", "BR", -23.960833, -46.333889, 10},
	{"Florianopolis", "BR", -27.594870, -48.548219, 12},
	{"Vitoria", "BR", -20.319734, -40.338287, 10},
	{"Cuiaba", "BR", -15.601411, -56.097892, 12},
	{"Aracaju", "BR", -10.947247, -37.073082, 10},
	{"Londrina", "BR", -23.310577, -51.162783, 11},
	{"Joinville", "BR", -26.304079, -48.846383, 10},
	{"Niteroi", "BR", -22.883333, -43.103611, 9},
	{"Uberlandia", "BR", -18.918610, -48.277187, 11},
	{"Ribeirao Preto", "BR", -21.170401, -47.810328, 11},

	// United States [30, 60)
	{"New York", "US", 40.712776, -74.005974, 45},
	{"Los Angeles", "US", 34.052235, -118.243683, 50},
	{"Chicago", "US", 41.878113, -87.629799, 35},
	{"Houston", "US", 29.760427, -95.369804, 40},
	{"Phoenix", "US", 33.448376, -112.074036, 30},
	{"Philadelphia", "US", 39.952583, -75.165222, 28},
	{"San Antonio", "US", 29.424122, -98.493629, 25},
	{"San Diego", "US", 32.715736, -117.161087, 25},
	{"Dallas", "US", 32.776665, -96.796989, 32},
	{"San Jose", "US", 37.338207, -121.886330, 20},
	{"Austin", "US", 30.267153, -97.743057, 22},
	{"Jacksonville", "US", 30.332184, -81.655647, 20},
	{"San Francisco", "US", 37.774929, -122.419418, 18},
	{"Columbus", "US", 39.961178, -82.998795, 18},
	{"Charlotte", "US", 35.227085, -80.843124, 18},
	{"Indianapolis", "US", 39.768403, -86.158068, 18},
	{"Seattle", "US", 47.606209, -122.332069, 20},
	{"Denver", "US", 39.739235, -104.990250, 20},
	{"Washington", "US", 38.907192, -77.036873, 22},
	{"Boston", "US", 42.360081, -71.058884, 20},
	{"Nashville", "US", 36.162663, -86.781601, 16},
	{"Detroit", "US", 42.331429, -83.045753, 20},
	{"Portland", "US", 45.512230, -122.658722, 16},
	{"Las Vegas", "US", 36.169941, -115.139832, 18},
	{"Memphis", "US", 35.149532, -90.048981, 15},
	{"Miami", "US", 25.761681, -80.191788, 22},
	{"Atlanta", "US", 33.748997, -84.387985, 25},
	{"New Orleans", "US", 29.951065, -90.071533, 14},
	{"Minneapolis", "US", 44.977753, -93.265011, 16},
	{"Salt Lake City", "US", 40.760780, -111.891045, 14},

	// Europe [60, 100)
	{"London", "GB", 51.507351, -0.127758, 35},
	{"Paris", "FR", 48.856613, 2.352222, 30},
	{"Berlin", "DE", 52.520008, 13.404954, 25},
	{"Madrid", "ES", 40.416775, -3.703790, 24},
	{"Rome", "IT", 41.902782, 12.496366, 22},
	{"Amsterdam", "NL", 52.367573, 4.904138, 15},
	{"Vienna", "AT", 48.208176, 16.373819, 18},
	{"Lisbon", "PT", 38.722252, -9.139337, 15},
	{"Dublin", "IE", 53.349805, -6.260310, 14},
	{"Brussels", "BE", 50.850346, 4.351721, 14},
	{"Barcelona", "ES", 41.385063, 2.173404, 20},
	{"Munich", "DE", 48.135124, 11.581981, 17},
	{"Milan", "IT", 45.464203, 9.189982, 18},
	{"Prague", "CZ", 50.075539, 14.437800, 16},
	{"Warsaw", "PL", 52.229675, 21.012230, 18},
	{"Budapest", "HU", 47.497913, 19.040236, 16},
	{"Stockholm", "SE", 59.329323, 18.068581, 16},
	{"Copenhagen", "DK", 55.676098, 12.568337, 14},
	{"Oslo", "NO", 59.913868, 10.752245, 13},
	{"Helsinki", "FI", 60.169857, 24.938379, 13},
	{"Zurich", "CH", 47.376888, 8.541694, 12},
	{"Geneva", "CH", 46.204391, 6.143158, 10},
	{"Frankfurt", "DE", 50.110924, 8.682127, 15},
	{"Hamburg", "DE", 53.551086, 9.993682, 16},
	{"Athens", "GR", 37.983810, 23.727539, 16},
	{"Bucharest", "RO", 44.426767, 26.102538, 14},
	{"Sofia", "BG", 42.697708, 23.321868, 12},
	{"Belgrade", "RS", 44.786568, 20.448921, 12},
	{"Zagreb", "HR", 45.815010, 15.981919, 10},
	{"Krakow", "PL", 50.064650, 19.944980, 12},
	{"Porto", "PT", 41.157944, -8.629105, 11},
	{"Valencia", "ES", 39.469907, -0.376288, 12},
	{"Naples", "IT", 40.851799, 14.268120, 13},
	{"Lyon", "FR", 45.764043, 4.835659, 12},
	{"Marseille", "FR", 43.296482, 5.369780, 13},
	{"Edinburgh", "GB", 55.953251, -3.188267, 10},
	{"Manchester", "GB", 53.480759, -2.242631, 14},
	{"Rotterdam", "NL", 51.924419, 4.477733, 11},
	{"Antwerp", "BE", 51.219448, 4.402464, 10},
	{"Luxembourg", "LU", 49.611622, 6.131935, 8},

	// Rest of the world [100, ...)
	{"Tokyo", "JP", 35.689487, 139.691711, 50},
	{"Osaka", "JP", 34.693738, 135.502165, 30},
	{"Seoul", "KR", 37.566536, 126.977966, 35},
	{"Beijing", "CN", 39.904202, 116.407394, 40},
	{"Shanghai", "CN", 31.230391, 121.473701, 40},
	{"Hong Kong", "HK", 22.319304, 114.169361, 18},
	{"Singapore", "SG", 1.352083, 103.819839, 16},
	{"Bangkok", "TH", 13.756331, 100.501762, 28},
	{"Jakarta", "ID", -6.208763, 106.845599, 30},
	{"Manila", "PH", 14.599512, 120.984222, 25},
	{"Kuala Lumpur", "MY", 3.139003, 101.686852, 20},
	{"Mumbai", "IN", 19.075983, 72.877655, 30},
	{"Delhi", "IN", 28.704060, 77.102493, 35},
	{"Bangalore", "IN", 12.971599, 77.594566, 25},
	{"Dubai", "AE", 25.204849, 55.270782, 25},
	{"Abu Dhabi", "AE", 24.453884, 54.377343, 18},
	{"Doha", "QA", 25.285446, 51.531040, 15},
	{"Riyadh", "SA", 24.713552, 46.675297, 25},
	{"Tel Aviv", "IL", 32.085300, 34.781769, 14},
	{"Istanbul", "TR", 41.008240, 28.978359, 30},
	{"Cairo", "EG", 30.044420, 31.235712, 30},
	{"Lagos", "NG", 6.524379, 3.379206, 28},
	{"Nairobi", "KE", -1.292066, 36.821945, 18},
	{"Johannesburg", "ZA", -26.204103, 28.047305, 25},
	{"Cape Town", "ZA", -33.924870, 18.424055, 20},
	{"Casablanca", "MA", 33.573110, -7.589843, 16},
	{"Accra", "GH", 5.603717, -0.186964, 14},
	{"Sydney", "AU", -33.868820, 151.209290, 30},
	{"Melbourne", "AU", -37.813629, 144.963058, 28},
	{"Brisbane", "AU", -27.469770, 153.025131, 20},
	{"Perth", "AU", -31.950527, 115.860458, 18},
	{"Auckland", "NZ", -36.848461, 174.763336, 16},
	{"Mexico City", "MX", 19.432608, -99.133209, 40},
	{"Guadalajara", "MX", 20.659698, -103.349609, 18},
	{"Monterrey", "MX", 25.686614, -100.316113, 18},
	{"Buenos Aires", "AR", -34.603722, -58.381592, 35},
	{"Cordoba", "AR", -31.420083, -64.188776, 15},
	{"Santiago", "CL", -33.448891, -70.669266, 25},
	{"Lima", "PE", -12.046374, -77.042793, 25},
	{"Bogota", "CO", 4.710989, -74.072090, 25},
	{"Medellin", "CO", 6.244203, -75.581212, 15},
	{"Quito", "EC", -0.180653, -78.467834, 13},
	{"Caracas", "VE", 10.480594, -66.903606, 16},
	{"Montevideo", "UY", -34.901113, -56.164531, 14},
	{"Asuncion", "PY", -25.263740, -57.575926, 12},
	{"La Paz", "BO", -16.489689, -68.119293, 12},
	{"Toronto", "CA", 43.653225, -79.383186, 28},
	{"Vancouver", "CA", 49.282730, -123.120735, 18},
	{"Montreal", "CA", 45.501690, -73.567253, 22},
	{"Ottawa", "CA", 45.421530, -75.697193, 14},
}

// Cities returns the catalog slice for a region. The returned slice aliases
// the process-wide table and must not be mutated.
func Cities(region Region) []City {
	switch region {
	case RegionBR:
		return cities[brStart:brEnd]
	case RegionUS:
		return cities[usStart:usEnd]
	case RegionEU:
		return cities[euStart:euEnd]
	default:
		return cities
	}
}

// RandomCity picks a uniformly random city from a region.
func RandomCity(rng *rand.Rand, region Region) City {
	set := Cities(region)
	return set[rng.Intn(len(set))]
}

// Center returns the city's coordinate as a Point.
func (c City) Center() Point {
	return Point{Lat: c.Lat, Lon: c.Lon}
}
