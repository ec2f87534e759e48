package interaction

// Default returns the built-in interaction rule set. Entries mirror widely
// known major/moderate interactions for the medications in the default
// lexicon.
func Default() *Table {
	t, err := New(
		[]PairRule{
			{A: "ibuprofen", B: "lisinopril",
				Message: "NSAIDs can blunt the antihypertensive effect of ACE inhibitors and worsen renal function (major)"},
			{A: "warfarin", B: "aspirin",
				Message: "combined anticoagulant and antiplatelet therapy markedly increases bleeding risk (major)"},
			{A: "warfarin", B: "ibuprofen",
				Message: "NSAIDs increase bleeding risk under anticoagulation (major)"},
			{A: "lisinopril", B: "spironolactone",
				Message: "ACE inhibitor with potassium-sparing diuretic can cause hyperkalemia (moderate)"},
			{A: "ciprofloxacin", B: "warfarin",
				Message: "fluoroquinolones potentiate warfarin; monitor INR closely (moderate)"},
			{A: "omeprazole", B: "clopidogrel",
				Message: "proton pump inhibitors can reduce clopidogrel activation (moderate)"},
		},
		[]KeywordRule{
			{Anchor: "statin", AnyOf: []string{"clarithromycin", "azithromycin", "erythromycin"},
				Message: "Warning: statins combined with macrolide antibiotics raise the risk of myopathy and rhabdomyolysis"},
			{Anchor: "pril", AnyOf: []string{"losartan"},
				Message: "Warning: combining ACE inhibitors with ARBs adds hypotension and renal risk with little benefit"},
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}
