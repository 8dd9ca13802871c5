/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"fmt"
	"regexp"
	"strings"
)

const rule = "=================================================="

// Summarize writes the plain-language overview of one report.
func Summarize(rt ReportType, readings []MetricReading) string {
	var low, high, critical []MetricReading

	for _, r := range readings {
		switch r.Status {
		case StatusLow:
			low = append(low, r)
		case StatusHigh:
			high = append(high, r)
		case StatusCritical:
			critical = append(critical, r)
		}
	}

	abnormal := len(low) + len(high) + len(critical)
	name := rt.narrativeName()

	if abnormal == 0 {
		return fmt.Sprintf("✅ Excellent news! Your %s shows all %d values within normal ranges. "+
			"Your blood health is good, and all key indicators are functioning properly. "+
			"Continue maintaining your healthy lifestyle.", name, len(readings))
	}

	var b strings.Builder

	fmt.Fprintf(&b, "📋 Your %s Analysis:\n\n", name)

	if len(critical) > 0 {
		fmt.Fprintf(&b, "🔴 CRITICAL: %d value(s) need immediate attention:\n", len(critical))

		for _, r := range critical {
			fmt.Fprintf(&b, "   • %s: %s %s (Critical - Normal: %s)\n", LabelName(r.Name), r.Value, r.Unit, r.NormalRange)
		}

		b.WriteString("\n")
	}

	if len(low) > 0 {
		fmt.Fprintf(&b, "⚠️ LOW VALUES: %d metric(s) below normal range:\n", len(low))
		writeBullets(&b, low)

		if hasMetric(low, "hemoglobin") {
			b.WriteString("   → Low hemoglobin indicates anemia - may cause fatigue and weakness\n")
		}

		if hasMetric(low, "wbc_count") {
			b.WriteString("   → Low white blood cells - weakened immune system\n")
		}

		if hasMetric(low, "platelet_count") {
			b.WriteString("   → Low platelets - increased bleeding risk\n")
		}

		b.WriteString("\n")
	}

	if len(high) > 0 {
		fmt.Fprintf(&b, "⚠️ HIGH VALUES: %d metric(s) above normal range:\n", len(high))
		writeBullets(&b, high)

		if hasMetric(high, "wbc_count") {
			b.WriteString("   → High white blood cells - possible infection or inflammation\n")
		}

		if hasMetric(high, "total_cholesterol") {
			b.WriteString("   → High cholesterol - increased cardiovascular risk\n")
		}

		b.WriteString("\n")
	}

	if normal := len(readings) - abnormal; normal > 0 {
		fmt.Fprintf(&b, "✅ NORMAL: %d metric(s) within healthy range\n\n", normal)
	}

	switch {
	case len(critical) > 0:
		b.WriteString("🏥 RECOMMENDATION: Consult your doctor immediately for critical values.")
	case float64(abnormal) >= float64(len(readings))/2:
		b.WriteString("🏥 RECOMMENDATION: Schedule a follow-up appointment with your doctor to discuss these results.")
	default:
		b.WriteString("💡 RECOMMENDATION: Monitor these values and discuss with your doctor during your next visit.")
	}

	return strings.TrimSpace(b.String())
}

func writeBullets(b *strings.Builder, readings []MetricReading) {
	for _, r := range readings {
		fmt.Fprintf(b, "   • %s: %s %s (Normal: %s)\n", LabelName(r.Name), r.Value, r.Unit, r.NormalRange)
	}
}

func hasMetric(readings []MetricReading, name string) bool {
	for _, r := range readings {
		if r.Name == name {
			return true
		}
	}

	return false
}

type explanation struct {
	heading    string
	rangeLabel string
	attachUnit bool
	whatItIs   string
	// meaning by status; statuses without an entry use the normal text.
	meaning map[Status]string
}

var explanations = map[string]explanation{
	"hemoglobin": {
		heading:  "HEMOGLOBIN",
		whatItIs: "Hemoglobin is a protein in red blood cells that carries oxygen from your lungs to all parts of your body.",
		meaning: map[Status]string{
			StatusLow:    "Your hemoglobin is BELOW normal range. This means you have fewer red blood cells than needed, which can cause fatigue, weakness, and shortness of breath. This condition is called anemia.",
			StatusHigh:   "Your hemoglobin is ABOVE normal range. This could indicate dehydration, lung disease, or living at high altitude.",
			StatusNormal: "Your hemoglobin is in the NORMAL range. Your blood can effectively carry oxygen to all your organs and tissues.",
		},
	},
	"wbc_count": {
		heading:  "WHITE BLOOD CELLS (WBC)",
		whatItIs: "White blood cells are your immune system's soldiers that fight infections and diseases.",
		meaning: map[Status]string{
			StatusLow:    "Your WBC count is LOW. This weakens your immune system and increases infection risk.",
			StatusHigh:   "Your WBC count is HIGH. This may indicate an infection, inflammation, or stress response.",
			StatusNormal: "Your WBC count is NORMAL. Your immune system is functioning well.",
		},
	},
	"rbc_count": {
		heading:  "RED BLOOD CELLS (RBC)",
		whatItIs: "Red blood cells carry oxygen from your lungs to every cell in your body.",
		meaning: map[Status]string{
			StatusLow:    "Your RBC count is LOW. This reduces oxygen delivery to your body.",
			StatusHigh:   "Your RBC count is HIGH. This may indicate dehydration or lung problems.",
			StatusNormal: "Your RBC count is NORMAL. Oxygen delivery to your body is adequate.",
		},
	},
	"platelet_count": {
		heading:  "PLATELETS",
		whatItIs: "Platelets are tiny blood cells that help stop bleeding by forming clots.",
		meaning: map[Status]string{
			StatusLow:    "Your platelet count is LOW. This increases bleeding risk and bruising.",
			StatusHigh:   "Your platelet count is HIGH. This may increase blood clot risk.",
			StatusNormal: "Your platelet count is NORMAL. Your blood can clot properly.",
		},
	},
	"hematocrit": {
		heading:    "HEMATOCRIT (HCT)",
		attachUnit: true,
		whatItIs:   "Hematocrit measures the percentage of your blood that is made up of red blood cells.",
		meaning: map[Status]string{
			StatusLow:    "Your hematocrit is LOW. This indicates anemia or blood loss.",
			StatusHigh:   "Your hematocrit is HIGH. This may indicate dehydration.",
			StatusNormal: "Your hematocrit is NORMAL.",
		},
	},
	"mcv": {
		heading:  "MCV (Mean Corpuscular Volume)",
		whatItIs: "MCV measures the average size of your red blood cells.",
		meaning: map[Status]string{
			StatusLow:    "Your red blood cells are SMALLER than normal. This may indicate iron deficiency.",
			StatusHigh:   "Your red blood cells are LARGER than normal. This may indicate vitamin B12 or folate deficiency.",
			StatusNormal: "Your red blood cells are NORMAL size.",
		},
	},
	"mch": {
		heading:  "MCH (Mean Corpuscular Hemoglobin)",
		whatItIs: "MCH measures the average amount of hemoglobin in each red blood cell.",
		meaning: map[Status]string{
			StatusLow:    "Your red blood cells contain LESS hemoglobin than normal. This is common in iron deficiency anemia.",
			StatusHigh:   "Your red blood cells contain MORE hemoglobin than normal.",
			StatusNormal: "Your red blood cells contain NORMAL amounts of hemoglobin.",
		},
	},
	"mchc": {
		heading:  "MCHC (Mean Corpuscular Hemoglobin Concentration)",
		whatItIs: "MCHC measures the concentration of hemoglobin in your red blood cells.",
		meaning: map[Status]string{
			StatusLow:    "Your hemoglobin concentration is LOW. This indicates iron deficiency anemia.",
			StatusHigh:   "Your hemoglobin concentration is HIGH.",
			StatusNormal: "Your hemoglobin concentration is NORMAL.",
		},
	},
	"neutrophils": {
		heading:    "NEUTROPHILS",
		attachUnit: true,
		whatItIs:   "Neutrophils are the most common type of white blood cells that fight bacterial infections.",
		meaning: map[Status]string{
			StatusLow:    "LOW neutrophils increase your risk of bacterial infections.",
			StatusHigh:   "HIGH neutrophils may indicate bacterial infection or inflammation.",
			StatusNormal: "NORMAL. Your body can fight bacterial infections effectively.",
		},
	},
	"lymphocytes": {
		heading:    "LYMPHOCYTES",
		attachUnit: true,
		whatItIs:   "Lymphocytes fight viral infections and produce antibodies.",
		meaning: map[Status]string{
			StatusLow:    "LOW lymphocytes may weaken your immune response to viruses.",
			StatusHigh:   "HIGH lymphocytes may indicate viral infection or immune response.",
			StatusNormal: "NORMAL. Your immune system is balanced.",
		},
	},
	"monocytes": {
		heading:    "MONOCYTES",
		attachUnit: true,
		whatItIs:   "Monocytes clean up dead cells and fight chronic infections.",
		meaning: map[Status]string{
			StatusLow:    "LOW monocytes are uncommon but may affect healing.",
			StatusHigh:   "HIGH monocytes may indicate chronic infection or inflammation.",
			StatusNormal: "NORMAL. Your body can clean up damaged tissue effectively.",
		},
	},
	"eosinophils": {
		heading:    "EOSINOPHILS",
		attachUnit: true,
		whatItIs:   "Eosinophils fight parasites and are involved in allergic reactions.",
		meaning: map[Status]string{
			StatusLow:    "LOW eosinophils are usually not concerning.",
			StatusHigh:   "HIGH eosinophils may indicate allergies, asthma, or parasitic infection.",
			StatusNormal: "NORMAL. No signs of allergies or parasites.",
		},
	},
	"basophils": {
		heading:    "BASOPHILS",
		attachUnit: true,
		whatItIs:   "Basophils release histamine during allergic reactions.",
		meaning: map[Status]string{
			StatusLow:    "LOW basophils are usually not concerning.",
			StatusHigh:   "HIGH basophils may indicate allergic reaction or inflammation.",
			StatusNormal: "NORMAL. No signs of severe allergic response.",
		},
	},
	"fasting_blood_sugar": {
		heading:  "FASTING BLOOD SUGAR",
		whatItIs: "Blood sugar level after 8-10 hours of not eating.",
		meaning: map[Status]string{
			StatusHigh:     "Your blood sugar is ELEVATED. This indicates poor glucose control and diabetes risk.",
			StatusCritical: "Your blood sugar is ELEVATED. This indicates poor glucose control and diabetes risk.",
			StatusNormal:   "Your blood sugar is NORMAL. Good glucose control.",
		},
	},
	"hba1c": {
		heading:    "HbA1c",
		attachUnit: true,
		whatItIs:   "Shows your average blood sugar over the past 3 months.",
		meaning: map[Status]string{
			StatusCritical: "DIABETES detected. Immediate medical attention needed.",
			StatusHigh:     "PREDIABETES detected. Lifestyle changes urgently needed.",
			StatusNormal:   "NORMAL. No diabetes risk.",
		},
	},
	"total_cholesterol": {
		heading:    "TOTAL CHOLESTEROL",
		rangeLabel: "Desirable",
		whatItIs:   "Sum of all cholesterol types in your blood.",
		meaning: map[Status]string{
			StatusHigh:     "ELEVATED. Increases heart disease and stroke risk.",
			StatusCritical: "ELEVATED. Increases heart disease and stroke risk.",
			StatusNormal:   "DESIRABLE range. Good for heart health.",
		},
	},
	"ldl_cholesterol": {
		heading:    `LDL "BAD" CHOLESTEROL`,
		rangeLabel: "Optimal",
		whatItIs:   "LDL can build up in arteries and cause blockages.",
		meaning: map[Status]string{
			StatusHigh:   "HIGH. Increases cardiovascular risk.",
			StatusNormal: "In healthy range.",
		},
	},
	"hdl_cholesterol": {
		heading:    `HDL "GOOD" CHOLESTEROL`,
		rangeLabel: "Desirable",
		whatItIs:   "HDL helps remove bad cholesterol from arteries.",
		meaning: map[Status]string{
			StatusLow:    "LOW. Higher HDL provides better heart protection.",
			StatusNormal: "Good level. Provides cardiovascular protection.",
		},
	},
}

func statusMarker(s Status) (emoji, label string) {
	switch s {
	case StatusLow:
		return "⚠️", "LOW"
	case StatusHigh:
		return "⚠️", "HIGH"
	case StatusCritical:
		return "🔴", "CRITICAL"
	default:
		return "✅", "NORMAL"
	}
}

func explainReading(r MetricReading) string {
	emoji, label := statusMarker(r.Status)

	e, ok := explanations[r.Name]
	if !ok {
		return fmt.Sprintf("%s %s: %s %s (%s)\n   Normal Range: %s %s\n\n   Status: %s",
			emoji, strings.ToUpper(strings.ReplaceAll(r.Name, "_", " ")),
			r.Value, r.Unit, label, r.NormalRange, r.Unit, label)
	}

	sep := " "
	if e.attachUnit {
		sep = ""
	}

	rangeLabel := e.rangeLabel
	if rangeLabel == "" {
		rangeLabel = "Normal Range"
	}

	meaning, ok := e.meaning[r.Status]
	if !ok {
		meaning = e.meaning[StatusNormal]
	}

	return fmt.Sprintf("%s %s: %s%s%s (%s)\n   %s: %s%s%s\n\n   What it is: %s\n\n   What your result means: %s",
		emoji, e.heading, r.Value, sep, r.Unit, label,
		rangeLabel, r.NormalRange, sep, r.Unit,
		e.whatItIs, meaning)
}

var (
	interpretationBlock  = regexp.MustCompile(`(?i)INTERPRETATION[\s\S]*`)
	interpretationEnd    = regexp.MustCompile(`(?i)RECOMMENDATIONS|Verified`)
	recommendationsBlock = regexp.MustCompile(`(?i)RECOMMENDATIONS:[\s\S]*`)
	verifiedRe           = regexp.MustCompile(`(?i)Verified`)
	verifiedTail         = regexp.MustCompile(`(?s)Verified.*`)
	rulerRe              = regexp.MustCompile(`[-=]+`)
	interpretationWord   = regexp.MustCompile(`(?i)INTERPRETATION`)
	recommendationsWord  = regexp.MustCompile(`(?i)RECOMMENDATIONS:`)
)

// sectionUntil returns the match of start cut at the first match of end.
func sectionUntil(text string, start, end *regexp.Regexp) string {
	section := start.FindString(text)
	if section == "" {
		return ""
	}

	if loc := end.FindStringIndex(section); loc != nil {
		section = section[:loc[0]]
	}

	return section
}

// Explain writes the per-metric explanation of one report, followed by the
// interpretation and recommendations printed in the report itself.
func Explain(rt ReportType, text string, readings []MetricReading) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== UNDERSTANDING YOUR %s ===\n\n", strings.ToUpper(rt.narrativeName()))

	if len(readings) > 0 {
		b.WriteString("📊 YOUR TEST RESULTS:\n")
		b.WriteString(rule + "\n\n")

		for i, r := range readings {
			fmt.Fprintf(&b, "%d. %s\n\n", i+1, explainReading(r))
		}
	}

	if section := sectionUntil(text, interpretationBlock, interpretationEnd); section != "" {
		interpretation := interpretationWord.ReplaceAllLiteralString(section, "")
		interpretation = strings.TrimSpace(rulerRe.ReplaceAllLiteralString(interpretation, ""))

		if interpretation != "" {
			b.WriteString("\n" + rule + "\n")
			b.WriteString("💡 MEDICAL INTERPRETATION:\n")
			b.WriteString(rule + "\n")
			b.WriteString(interpretation + "\n\n")
		}
	}

	if section := sectionUntil(text, recommendationsBlock, verifiedRe); section != "" {
		recommendations := recommendationsWord.ReplaceAllLiteralString(section, "")
		recommendations = rulerRe.ReplaceAllLiteralString(recommendations, "")
		recommendations = strings.TrimSpace(verifiedTail.ReplaceAllLiteralString(recommendations, ""))

		if recommendations != "" {
			b.WriteString(rule + "\n")
			b.WriteString("✅ DOCTOR'S RECOMMENDATIONS:\n")
			b.WriteString(rule + "\n")
			b.WriteString(recommendations + "\n")
		}
	}

	return strings.TrimSpace(b.String())
}
