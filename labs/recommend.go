/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

// Advice is a recommendation attached to a single report.
type Advice struct {
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Message          string   `json:"message"`
	Priority         string   `json:"priority"`
	Actions          []string `json:"actions"`
	FoodsToEat       []string `json:"foods_to_eat,omitempty"`
	FoodsToAvoid     []string `json:"foods_to_avoid,omitempty"`
	LifestyleChanges []string `json:"lifestyle_changes,omitempty"`
}

// FollowUpSchedule says when the next test should happen.
type FollowUpSchedule struct {
	Urgency     string       `json:"urgency"`
	Timeframe   string       `json:"timeframe"`
	Message     string       `json:"message"`
	TestsNeeded []ReportType `json:"tests_needed"`
}

func findReading(readings []MetricReading, match func(MetricReading) bool) (MetricReading, bool) {
	for _, r := range readings {
		if match(r) {
			return r, true
		}
	}

	return MetricReading{}, false
}

func isElevated(s Status) bool {
	return s == StatusHigh || s == StatusCritical
}

// Recommend returns the advice for one report's readings.
func Recommend(rt ReportType, readings []MetricReading) []Advice {
	abnormal := countStatuses(readings).Abnormal()

	if abnormal == 0 {
		return []Advice{{
			Type:     "positive",
			Title:    "Great Job!",
			Message:  "All your values are within normal range. Keep up the healthy lifestyle!",
			Priority: "low",
			Actions:  []string{"Continue current diet", "Maintain exercise routine", "Regular check-ups"},
		}}
	}

	advice := []Advice{}

	switch rt {
	case ReportCBC:
		advice = append(advice, cbcAdvice(readings)...)
	case ReportSugar:
		advice = append(advice, sugarAdvice(readings)...)
	case ReportLipid:
		advice = append(advice, lipidAdvice(readings)...)
	}

	if abnormal > 2 {
		advice = append(advice, Advice{
			Type:     "info",
			Title:    "Multiple Values Need Attention",
			Message:  "Several metrics are outside normal range. Comprehensive lifestyle changes recommended.",
			Priority: "high",
			Actions: []string{
				"Schedule comprehensive health check-up",
				"Consult with primary care physician",
				"Consider working with nutritionist",
				"Start exercise program gradually",
				"Track your progress monthly",
			},
		})
	}

	return advice
}

func cbcAdvice(readings []MetricReading) []Advice {
	var advice []Advice

	if _, ok := findReading(readings, func(r MetricReading) bool {
		return r.Name == "hemoglobin" && r.Status == StatusLow
	}); ok {
		advice = append(advice, Advice{
			Type:     "warning",
			Title:    "Low Hemoglobin Detected",
			Message:  "Your hemoglobin is below normal range, which may cause fatigue and weakness.",
			Priority: "high",
			Actions: []string{
				"Eat iron-rich foods (spinach, red meat, beans)",
				"Take iron supplements (consult doctor)",
				"Increase Vitamin C intake (helps iron absorption)",
				"Avoid tea/coffee with meals (blocks iron absorption)",
				"Follow-up test in 3 months",
			},
			FoodsToEat:   []string{"Spinach", "Red meat", "Lentils", "Eggs", "Fortified cereals"},
			FoodsToAvoid: []string{"Excessive tea", "Coffee with meals", "Calcium supplements with iron"},
		})
	}

	if _, ok := findReading(readings, func(r MetricReading) bool {
		return r.Name == "wbc_count" && r.Status == StatusHigh
	}); ok {
		advice = append(advice, Advice{
			Type:     "alert",
			Title:    "Elevated White Blood Cells",
			Message:  "High WBC count may indicate infection or inflammation.",
			Priority: "high",
			Actions: []string{
				"Consult doctor immediately",
				"May need additional tests",
				"Monitor for fever or symptoms",
				"Stay hydrated",
				"Get adequate rest",
			},
		})
	}

	return advice
}

func sugarAdvice(readings []MetricReading) []Advice {
	r, ok := findReading(readings, func(r MetricReading) bool {
		return (r.Name == "fasting_blood_sugar" || r.Name == "hba1c") && isElevated(r.Status)
	})
	if !ok {
		return nil
	}

	a := Advice{
		Type:     "warning",
		Title:    "Prediabetes Warning",
		Message:  "Your blood sugar is elevated. You are at risk for diabetes.",
		Priority: "critical",
		Actions: []string{
			"Consult endocrinologist immediately",
			"Start diabetes management plan",
			"Monitor blood sugar daily",
			"Reduce sugar and refined carbs",
			"Exercise 30 minutes daily",
			"Lose 5-10% body weight if overweight",
		},
		FoodsToEat:   []string{"Vegetables", "Whole grains", "Lean protein", "Nuts", "Berries"},
		FoodsToAvoid: []string{"Sugary drinks", "White bread", "Pastries", "Candy", "Processed foods"},
		LifestyleChanges: []string{
			"Walk after meals",
			"Reduce portion sizes",
			"Eat more fiber",
			"Manage stress",
			"Get 7-8 hours sleep",
		},
	}

	if r.Status == StatusCritical {
		a.Type = "critical"
		a.Title = "Diabetes Detected"
		a.Message = "Your blood sugar levels indicate diabetes. Immediate medical attention required."
	}

	return []Advice{a}
}

func lipidAdvice(readings []MetricReading) []Advice {
	var advice []Advice

	if _, ok := findReading(readings, func(r MetricReading) bool {
		return (r.Name == "total_cholesterol" || r.Name == "ldl_cholesterol") && isElevated(r.Status)
	}); ok {
		advice = append(advice, Advice{
			Type:     "warning",
			Title:    "High Cholesterol Detected",
			Message:  "Elevated cholesterol increases your risk of heart disease and stroke.",
			Priority: "high",
			Actions: []string{
				"Consult cardiologist",
				"May need statin medication",
				"Reduce saturated fats",
				"Increase physical activity",
				"Quit smoking if applicable",
				"Retest in 3 months",
			},
			FoodsToEat:   []string{"Oats", "Fatty fish", "Nuts", "Olive oil", "Avocado", "Beans"},
			FoodsToAvoid: []string{"Red meat", "Butter", "Cheese", "Fried foods", "Trans fats"},
			LifestyleChanges: []string{
				"Exercise 150 minutes/week",
				"Lose weight if overweight",
				"Reduce alcohol",
				"Manage stress",
				"Eat more fiber",
			},
		})
	}

	if _, ok := findReading(readings, func(r MetricReading) bool {
		return r.Name == "hdl_cholesterol" && r.Status == StatusLow
	}); ok {
		advice = append(advice, Advice{
			Type:     "info",
			Title:    "Low HDL (Good Cholesterol)",
			Message:  "Higher HDL cholesterol provides better heart protection.",
			Priority: "medium",
			Actions: []string{
				"Increase aerobic exercise",
				"Eat healthy fats (omega-3)",
				"Quit smoking",
				"Lose weight if overweight",
				"Moderate alcohol may help (consult doctor)",
			},
			FoodsToEat: []string{"Fatty fish", "Nuts", "Olive oil", "Avocado"},
		})
	}

	return advice
}

// FollowUp picks the follow-up schedule for one report.
func FollowUp(rt ReportType, readings []MetricReading) FollowUpSchedule {
	d := countStatuses(readings)

	switch {
	case d.Critical > 0:
		return FollowUpSchedule{
			Urgency:     "immediate",
			Timeframe:   "1-2 weeks",
			Message:     "Critical values detected. Schedule follow-up immediately.",
			TestsNeeded: []ReportType{rt},
		}
	case d.Abnormal() > 0:
		return FollowUpSchedule{
			Urgency:     "soon",
			Timeframe:   "3 months",
			Message:     "Some values are abnormal. Follow-up recommended in 3 months.",
			TestsNeeded: []ReportType{rt},
		}
	default:
		return FollowUpSchedule{
			Urgency:     "routine",
			Timeframe:   "6-12 months",
			Message:     "All values normal. Routine check-up in 6-12 months.",
			TestsNeeded: []ReportType{rt},
		}
	}
}
