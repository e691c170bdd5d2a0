package terminology

// SeedTable returns a Table populated with the built-in starter vocabulary:
// common ICD-10 diagnoses, CPT procedures, clinical abbreviations, and
// synonyms. It backs tests and development runs; production deployments load
// full tables from files or Postgres instead.
func SeedTable() *Table {
	return NewTable(seedCodes, seedTerms, seedSynonyms, seedAbbreviations)
}

var seedCodes = []Code{
	{System: SystemICD10, Code: "I10", Display: "Essential (primary) hypertension"},
	{System: SystemICD10, Code: "E11.9", Display: "Type 2 diabetes mellitus without complications"},
	{System: SystemICD10, Code: "J45.909", Display: "Unspecified asthma, uncomplicated"},
	{System: SystemICD10, Code: "J18.9", Display: "Pneumonia, unspecified organism"},
	{System: SystemICD10, Code: "N39.0", Display: "Urinary tract infection, site not specified"},
	{System: SystemICD10, Code: "J20.9", Display: "Acute bronchitis, unspecified"},
	{System: SystemICD10, Code: "F32.9", Display: "Major depressive disorder, single episode, unspecified"},
	{System: SystemICD10, Code: "F41.9", Display: "Anxiety disorder, unspecified"},
	{System: SystemICD10, Code: "K21.9", Display: "Gastro-esophageal reflux disease without esophagitis"},
	{System: SystemICD10, Code: "I50.9", Display: "Heart failure, unspecified"},
	{System: SystemICD10, Code: "I25.10", Display: "Atherosclerotic heart disease of native coronary artery"},
	{System: SystemICD10, Code: "M54.5", Display: "Low back pain"},
	{System: SystemICD10, Code: "I21.9", Display: "Acute myocardial infarction, unspecified"},
	{System: SystemCPT, Code: "99213", Display: "Office visit, established patient"},
	{System: SystemCPT, Code: "71045", Display: "Chest x-ray, single view"},
	{System: SystemCPT, Code: "93306", Display: "Echocardiogram, complete"},
	{System: SystemCPT, Code: "45378", Display: "Colonoscopy, diagnostic"},
	{System: SystemCPT, Code: "43235", Display: "Upper endoscopy, diagnostic"},
	{System: SystemCPT, Code: "85025", Display: "Complete blood count with differential"},
	{System: SystemCPT, Code: "80053", Display: "Comprehensive metabolic panel"},
	{System: SystemCPT, Code: "80061", Display: "Lipid panel"},
	{System: SystemCPT, Code: "90688", Display: "Influenza vaccine, quadrivalent"},
	{System: SystemHCPCS, Code: "J0696", Display: "Injection, ceftriaxone sodium, per 250 mg"},
	{System: SystemHCPCS, Code: "A4550", Display: "Surgical trays"},
}

// Curated canonical terms: shorter clinical names that the exact tier should
// hit at full confidence even though they differ from the display string.
var seedTerms = []TermEntry{
	{Term: "hypertension", System: SystemICD10, Code: "I10"},
	{Term: "diabetes", System: SystemICD10, Code: "E11.9"},
	{Term: "diabetes mellitus", System: SystemICD10, Code: "E11.9"},
	{Term: "type 2 diabetes", System: SystemICD10, Code: "E11.9"},
	{Term: "asthma", System: SystemICD10, Code: "J45.909"},
	{Term: "pneumonia", System: SystemICD10, Code: "J18.9"},
	{Term: "urinary tract infection", System: SystemICD10, Code: "N39.0"},
	{Term: "bronchitis", System: SystemICD10, Code: "J20.9"},
	{Term: "acute bronchitis", System: SystemICD10, Code: "J20.9"},
	{Term: "depression", System: SystemICD10, Code: "F32.9"},
	{Term: "anxiety", System: SystemICD10, Code: "F41.9"},
	{Term: "gastroesophageal reflux disease", System: SystemICD10, Code: "K21.9"},
	{Term: "congestive heart failure", System: SystemICD10, Code: "I50.9"},
	{Term: "coronary artery disease", System: SystemICD10, Code: "I25.10"},
	{Term: "low back pain", System: SystemICD10, Code: "M54.5"},
	{Term: "myocardial infarction", System: SystemICD10, Code: "I21.9"},
	{Term: "office visit", System: SystemCPT, Code: "99213"},
	{Term: "chest x-ray", System: SystemCPT, Code: "71045"},
	{Term: "echocardiogram", System: SystemCPT, Code: "93306"},
	{Term: "colonoscopy", System: SystemCPT, Code: "45378"},
	{Term: "upper endoscopy", System: SystemCPT, Code: "43235"},
	{Term: "complete blood count", System: SystemCPT, Code: "85025"},
	{Term: "comprehensive metabolic panel", System: SystemCPT, Code: "80053"},
	{Term: "lipid panel", System: SystemCPT, Code: "80061"},
	{Term: "influenza vaccine", System: SystemCPT, Code: "90688"},
	{Term: "flu vaccine", System: SystemCPT, Code: "90688"},
}

var seedSynonyms = []Synonym{
	{Synonym: "high blood pressure", Canonical: "hypertension"},
	{Synonym: "elevated blood pressure", Canonical: "hypertension"},
	{Synonym: "sugar diabetes", Canonical: "diabetes mellitus"},
	{Synonym: "heart attack", Canonical: "myocardial infarction"},
	{Synonym: "bladder infection", Canonical: "urinary tract infection"},
	{Synonym: "acid reflux", Canonical: "gastroesophageal reflux disease"},
	{Synonym: "lumbago", Canonical: "low back pain"},
	{Synonym: "cbc", Canonical: "complete blood count"},
	{Synonym: "cmp", Canonical: "comprehensive metabolic panel"},
}

var seedAbbreviations = []Abbreviation{
	{Abbreviation: "HTN", Expansion: "hypertension"},
	{Abbreviation: "DM", Expansion: "diabetes mellitus"},
	{Abbreviation: "DM2", Expansion: "type 2 diabetes"},
	{Abbreviation: "COPD", Expansion: "chronic obstructive pulmonary disease"},
	{Abbreviation: "CHF", Expansion: "congestive heart failure"},
	{Abbreviation: "CAD", Expansion: "coronary artery disease"},
	{Abbreviation: "MI", Expansion: "myocardial infarction"},
	{Abbreviation: "CVA", Expansion: "cerebrovascular accident"},
	{Abbreviation: "UTI", Expansion: "urinary tract infection"},
	{Abbreviation: "URI", Expansion: "upper respiratory infection"},
	{Abbreviation: "LBP", Expansion: "low back pain"},
	{Abbreviation: "GERD", Expansion: "gastroesophageal reflux disease"},
	{Abbreviation: "CXR", Expansion: "chest x-ray"},
	{Abbreviation: "Dx", Expansion: "diagnosis"},
	{Abbreviation: "Hx", Expansion: "history"},
	{Abbreviation: "Sx", Expansion: "symptoms"},
}
