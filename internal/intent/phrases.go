// README: Curated phrase and entity lists backing the heuristic intent detector.
package intent

// planPhrases are whole phrases whose presence marks an explicit trip-planning
// request. Matching is substring containment over the lower-cased message, so
// "can you plan a trip for us" hits "plan a trip".
var planPhrases = []string{
	"plan a trip",
	"plan my trip",
	"plan the trip",
	"plan our trip",
	"plan a vacation",
	"plan a holiday",
	"plan a getaway",
	"plan a weekend",
	"help me plan",
	"help us plan",
	"create a trip",
	"create an itinerary",
	"build an itinerary",
	"make an itinerary",
	"put together an itinerary",
	"trip plan",
	"start planning",
	"organize a trip",
	"organise a trip",
}

// travelVerbs signal travel intent when they appear alongside a destination
// but without any explicit planning phrase.
var travelVerbs = []string{
	"go to",
	"going to",
	"visit",
	"travel",
	"fly to",
	"flying to",
	"head to",
	"get away",
	"book",
	"take a trip",
	"escape to",
}

// knownDestinations is matched case-insensitively; the listed casing is what
// the detector reports. Multi-word names must precede any single-word prefix
// of themselves.
var knownDestinations = []string{
	"New York",
	"Mexico City",
	"Rio de Janeiro",
	"Buenos Aires",
	"Cape Town",
	"San Francisco",
	"Los Angeles",
	"Kuala Lumpur",
	"Hong Kong",
	"Paris",
	"Tokyo",
	"London",
	"Rome",
	"Barcelona",
	"Amsterdam",
	"Berlin",
	"Prague",
	"Vienna",
	"Lisbon",
	"Madrid",
	"Athens",
	"Istanbul",
	"Dubai",
	"Singapore",
	"Bangkok",
	"Bali",
	"Kyoto",
	"Osaka",
	"Seoul",
	"Taipei",
	"Sydney",
	"Melbourne",
	"Auckland",
	"Honolulu",
	"Cancun",
	"Lima",
	"Marrakech",
	"Cairo",
	"Reykjavik",
	"Oslo",
	"Stockholm",
	"Copenhagen",
	"Helsinki",
	"Dublin",
	"Edinburgh",
	"Venice",
	"Florence",
	"Milan",
	"Naples",
	"Chicago",
	"Miami",
	"Seattle",
	"Vancouver",
	"Toronto",
	"Montreal",
	"Iceland",
	"Japan",
	"Italy",
	"France",
	"Spain",
	"Portugal",
	"Greece",
	"Thailand",
	"Vietnam",
	"Morocco",
	"Peru",
	"Brazil",
	"Hawaii",
	"Switzerland",
	"Norway",
	"Croatia",
	"Patagonia",
}

// datePhrases are relative date expressions carried through as-is; resolving
// them to calendar dates happens later, at booking time.
var datePhrases = []string{
	"this weekend",
	"next weekend",
	"this week",
	"next week",
	"this month",
	"next month",
	"this summer",
	"next summer",
	"this winter",
	"next winter",
	"this spring",
	"this fall",
	"next year",
	"tomorrow",
	"today",
	"in january",
	"in february",
	"in march",
	"in april",
	"in may",
	"in june",
	"in july",
	"in august",
	"in september",
	"in october",
	"in november",
	"in december",
}

// peopleWords mark a trailing number as a party size rather than a duration.
var peopleWords = []string{
	"people",
	"persons",
	"travelers",
	"travellers",
	"adults",
	"guests",
	"friends",
}

var wordNumbers = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
	"ten":   10,
}
