package domain

import "sort"

// Action list bounds. The generator never returns fewer than minActions or
// more than maxActions items.
const (
	minActions = 2
	maxActions = 5
)

// candidate is one potential action with its priority weight. Higher priority
// sorts first; the highest-priority matching rule always ends up at index 0.
type candidate struct {
	priority int
	text     string
}

// Generic monitoring items appended when too few rules match.
var fallbackActions = []candidate{
	{20, "নিয়মিত ফসল পর্যবেক্ষণ করুন এবং পরিবর্তন লক্ষ্য করলে কৃষি কর্মকর্তার সাথে যোগাযোগ করুন"},
	{15, "আবহাওয়ার পূর্বাভাস প্রতিদিন নজরে রাখুন"},
}

// GenerateActions builds the prioritized, deduplicated, length-bounded action
// list for a crop under the given weather and risk level.
func GenerateActions(c CropContext, w WeatherSnapshot, level RiskLevel) []string {
	var cands []candidate

	if level == RiskCritical {
		cands = append(cands, candidate{100, "জরুরি: ফসল রক্ষায় এখনই ব্যবস্থা নিন"})
	}

	switch c.Stage {
	case StageHarvested:
		cands = append(cands, harvestedCandidates(c, w)...)
	case StageGrowing:
		cands = append(cands, growingCandidates(c, w)...)
	}

	if level == RiskHigh || level == RiskCritical {
		cands = append(cands, candidate{68, "দিনে অন্তত দুইবার ফসলের অবস্থা পরীক্ষা করুন"})
	}

	// Stable sort keeps first-encountered order among equal priorities.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].priority > cands[j].priority })

	actions := make([]string, 0, maxActions)
	seen := make(map[string]bool)
	for _, cand := range cands {
		if seen[cand.text] {
			continue
		}
		seen[cand.text] = true
		actions = append(actions, cand.text)
		if len(actions) == maxActions {
			break
		}
	}

	// Pad with generic monitoring items until the lower bound is met.
	for _, fb := range fallbackActions {
		if len(actions) >= minActions {
			break
		}
		if seen[fb.text] {
			continue
		}
		seen[fb.text] = true
		actions = append(actions, fb.text)
	}

	return actions
}

// harvestedCandidates covers stored crops: rain exposure, mold, heat, and wind.
func harvestedCandidates(c CropContext, w WeatherSnapshot) []candidate {
	var cands []candidate

	if w.Rainfall > 20 && c.StorageMethod == StorageOpenSpace {
		cands = append(cands, candidate{95, "খোলা জায়গায় রাখা ফসল এখনই ঢেকে দিন বা নিরাপদ স্থানে সরিয়ে নিন"})
	}
	if w.Humidity > 80 && w.Temperature > 30 {
		cands = append(cands, candidate{88, "ছাতা পড়া ও পচনের ঝুঁকি বেশি, সংরক্ষিত ফসল পরীক্ষা করুন"})
	}
	if w.Humidity > 80 {
		cands = append(cands, candidate{75, "গুদামে বাতাস চলাচলের ব্যবস্থা বাড়ান"})
	}
	if w.Temperature > 35 {
		cands = append(cands, candidate{70, "সংরক্ষণের স্থান ঠান্ডা রাখুন, সরাসরি রোদ এড়িয়ে চলুন"})
	}
	if c.StorageMethod == StorageJuteBag && w.Humidity > 70 {
		cands = append(cands, candidate{65, "চটের বস্তা রোদে শুকিয়ে নিন, ভেজা বস্তা বদলে ফেলুন"})
	}
	if w.WindSpeed > 10 && (c.StorageMethod == StorageOpenSpace || c.StorageMethod == StorageTinShed) {
		cands = append(cands, candidate{60, "ঝড়ো বাতাসে চালা ও ঢাকনা শক্ত করে বাঁধুন"})
	}

	return cands
}

// growingCandidates covers field crops: drainage, staking, irrigation, disease.
func growingCandidates(c CropContext, w WeatherSnapshot) []candidate {
	var cands []candidate

	if w.Rainfall > 50 {
		cands = append(cands, candidate{90, "জমিতে পানি জমতে দেবেন না, নিষ্কাশনের নালা পরিষ্কার করুন"})
	} else if w.Rainfall > 20 {
		cands = append(cands, candidate{72, "নিষ্কাশন ব্যবস্থা পরীক্ষা করে রাখুন"})
	}
	if w.Humidity > 80 && w.Temperature > 30 {
		cands = append(cands, candidate{85, "রোগবালাইয়ের ঝুঁকি বেশি, পাতায় দাগ বা ছত্রাক দেখা দিলে দ্রুত ব্যবস্থা নিন"})
	}
	if c.DaysToHarvest != nil && *c.DaysToHarvest <= 7 {
		cands = append(cands, candidate{82, "কয়েক দিনের মধ্যে ফসল কাটার প্রস্তুতি নিন, শুকনো দিন বেছে নিন"})
	}
	if w.WindSpeed > 10 {
		cands = append(cands, candidate{80, "গাছ হেলে পড়া ঠেকাতে খুঁটি বা ঠেকনা দিন"})
	}
	if w.Temperature > 35 {
		cands = append(cands, candidate{78, "সকালে বা সন্ধ্যায় সেচ দিন, দুপুরের গরমে সেচ এড়িয়ে চলুন"})
	}

	return cands
}
