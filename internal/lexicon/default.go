package lexicon

// Default returns the built-in medication vocabulary. It covers common
// prescription drugs with their frequent brand names and OCR-prone spelling
// variants; deployments with a larger formulary load a YAML file instead.
func Default() *Lexicon {
	lex, err := New([]Entry{
		{Canonical: "amoxicillin", Aliases: []string{"amoxil", "trimox", "amoxicilin"}},
		{Canonical: "amlodipine", Aliases: []string{"norvasc"}},
		{Canonical: "aspirin", Aliases: []string{"asa", "ecotrin", "asprin"}},
		{Canonical: "atorvastatin", Aliases: []string{"lipitor"}},
		{Canonical: "azithromycin", Aliases: []string{"zithromax", "z-pak"}},
		{Canonical: "ciprofloxacin", Aliases: []string{"cipro"}},
		{Canonical: "clarithromycin", Aliases: []string{"biaxin"}},
		{Canonical: "gabapentin", Aliases: []string{"neurontin"}},
		{Canonical: "ibuprofen", Aliases: []string{"advil", "motrin", "brufen", "ibuprofin"}},
		{Canonical: "levothyroxine", Aliases: []string{"synthroid", "levoxyl"}},
		{Canonical: "lisinopril", Aliases: []string{"prinivil", "zestril", "lisinoprl"}},
		{Canonical: "losartan", Aliases: []string{"cozaar"}},
		{Canonical: "metformin", Aliases: []string{"glucophage", "metfornin"}},
		{Canonical: "metoprolol", Aliases: []string{"lopressor", "toprol"}},
		{Canonical: "omeprazole", Aliases: []string{"prilosec"}},
		{Canonical: "paracetamol", Aliases: []string{"acetaminophen", "tylenol", "panadol"}},
		{Canonical: "prednisone", Aliases: []string{"deltasone"}},
		{Canonical: "sertraline", Aliases: []string{"zoloft"}},
		{Canonical: "simvastatin", Aliases: []string{"zocor"}},
		{Canonical: "spironolactone", Aliases: []string{"aldactone"}},
		{Canonical: "warfarin", Aliases: []string{"coumadin", "jantoven"}},
	})
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return lex
}
