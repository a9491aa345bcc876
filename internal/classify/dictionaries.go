package classify

// BrandEntry maps a canonical brand name to its aliases and category.
type BrandEntry struct {
	Name     string
	Aliases  []string
	Category string
}

// Dictionaries holds the lexical data the classifier matches against.
// Callers may supply their own; DefaultDictionaries ships a Korean
// retail vocabulary.
type Dictionaries struct {
	Brands           []BrandEntry
	CategoryKeywords map[string][]string

	// PersonalizationPatterns match queries that ask for recommendations
	// based on the user's own history.
	PersonalizationPatterns []string

	// GeneralPatterns match broad recommendation requests. They imply
	// personalization only when no brand was found in the query.
	GeneralPatterns []string

	BenefitKeywords []string

	// BenefitTypeKeywords maps benefit-type hints to their trigger words,
	// checked in order; the first matching type wins.
	BenefitTypeKeywords []BenefitTypeEntry

	Stopwords []string
}

// BenefitTypeEntry ties a benefit type to the query words that imply it.
type BenefitTypeEntry struct {
	Type     string
	Keywords []string
}

// DefaultDictionaries returns the built-in Korean retail vocabulary.
func DefaultDictionaries() Dictionaries {
	return Dictionaries{
		Brands: []BrandEntry{
			// 카페
			{Name: "스타벅스", Aliases: []string{"스타벅스", "starbucks", "스타벅스코리아", "스벅"}, Category: "카페"},
			{Name: "투썸플레이스", Aliases: []string{"투썸", "twosome", "투썸플레이스"}, Category: "카페"},
			{Name: "메가커피", Aliases: []string{"메가", "mega", "메가커피", "메가mgc커피"}, Category: "카페"},
			{Name: "할리스", Aliases: []string{"할리스", "hollys", "할리스커피"}, Category: "카페"},
			{Name: "파스쿠찌", Aliases: []string{"파스쿠찌", "pascucci", "파스쿠치"}, Category: "카페"},
			{Name: "이디야", Aliases: []string{"이디야", "ediya", "이디야커피"}, Category: "카페"},

			// 편의점
			{Name: "GS25", Aliases: []string{"gs25", "지에스25", "gs편의점", "지에스편의점"}, Category: "편의점"},
			{Name: "세븐일레븐", Aliases: []string{"세븐일레븐", "7-eleven", "세븐", "711"}, Category: "편의점"},
			{Name: "CU", Aliases: []string{"cu", "씨유", "cu편의점"}, Category: "편의점"},

			// 마트
			{Name: "홈플러스", Aliases: []string{"홈플러스", "homeplus", "홈플"}, Category: "마트"},
			{Name: "이마트", Aliases: []string{"이마트", "emart", "e마트"}, Category: "마트"},
			{Name: "롯데마트", Aliases: []string{"롯데마트", "lotte mart"}, Category: "마트"},

			// 패션
			{Name: "무신사", Aliases: []string{"무신사", "musinsa"}, Category: "패션"},
			{Name: "지그재그", Aliases: []string{"지그재그", "zigzag"}, Category: "패션"},

			// 온라인쇼핑
			{Name: "쿠팡", Aliases: []string{"쿠팡", "coupang", "쿠팡이츠"}, Category: "온라인쇼핑"},
			{Name: "지마켓", Aliases: []string{"지마켓", "gmarket", "g마켓"}, Category: "온라인쇼핑"},
			{Name: "11번가", Aliases: []string{"11번가", "11st", "십일번가"}, Category: "온라인쇼핑"},
			{Name: "네이버쇼핑", Aliases: []string{"네이버쇼핑", "네이버"}, Category: "온라인쇼핑"},

			// 식당
			{Name: "맥도날드", Aliases: []string{"맥도날드", "mcdonalds", "맥날", "맥도"}, Category: "식당"},
			{Name: "버거킹", Aliases: []string{"버거킹", "burger king", "버킹"}, Category: "식당"},
			{Name: "KFC", Aliases: []string{"kfc", "케이에프씨"}, Category: "식당"},

			// 뷰티
			{Name: "올리브영", Aliases: []string{"올리브영", "oliveyoung", "올영"}, Category: "뷰티"},

			// 의료
			{Name: "온누리약국", Aliases: []string{"온누리약국", "온누리"}, Category: "의료"},

			// 교통
			{Name: "지하철", Aliases: []string{"지하철", "전철", "도시철도"}, Category: "교통"},
			{Name: "버스", Aliases: []string{"버스", "시내버스", "마을버스"}, Category: "교통"},
		},

		CategoryKeywords: map[string][]string{
			"카페":    {"카페", "커피", "coffee", "cafe", "커피숍", "커피점", "아메리카노", "라떼"},
			"편의점":   {"편의점", "편의", "컨비니", "convenience"},
			"마트":    {"마트", "mart", "슈퍼", "대형마트", "할인마트", "생필품"},
			"패션":    {"패션", "의류", "fashion"},
			"온라인쇼핑": {"온라인", "쇼핑", "인터넷", "online", "shopping", "이커머스", "배송"},
			"식당":    {"식당", "음식점", "레스토랑", "restaurant", "음식", "먹거리", "치킨", "버거", "햄버거"},
			"뷰티":    {"뷰티", "화장품", "미용", "beauty", "cosmetic", "스킨케어", "메이크업"},
			"의료":    {"약국", "병원", "의료", "pharmacy", "medical", "건강", "영양제", "비타민"},
			"교통":    {"교통", "지하철", "버스", "택시", "전철", "대중교통", "정기권"},
		},

		PersonalizationPatterns: []string{
			`내\s*소비.*패턴`, `내.*맞는`, `나.*맞는`, `우리.*맞는`,
			`개인화.*추천`, `맞춤.*추천`, `맞춤형.*혜택`,
			`지난.*소비`, `최근.*소비`, `저번.*소비`,
			`지난주.*썼`, `저번주.*썼`, `최근.*썼`,
			`내가.*자주`, `내가.*많이`, `내가.*주로`,
			`패턴.*기반`, `이력.*기반`, `히스토리.*기반`,
		},

		GeneralPatterns: []string{
			`추천.*해.*줘`,
			`혜택.*있.*어`,
		},

		BenefitKeywords: []string{"혜택", "할인", "이벤트", "적립", "쿠폰", "증정", "특가", "세일", "추천"},

		BenefitTypeKeywords: []BenefitTypeEntry{
			{Type: "discount", Keywords: []string{"할인", "세일", "특가"}},
			{Type: "coupon", Keywords: []string{"쿠폰"}},
			{Type: "points", Keywords: []string{"적립", "포인트"}},
			{Type: "gift", Keywords: []string{"증정", "사은품"}},
		},

		Stopwords: []string{
			"혜택", "할인", "이벤트", "쿠폰", "적립", "증정", "세일", "특가", "추천", "찾아", "알려", "있어", "해줘",
			"카페", "마트", "식당", "편의점", "온라인", "쇼핑", "뷰티", "의료", "병원", "약국", "은행", "금융",
			"소비", "패턴", "맞는", "어디", "뭐가", "어떤", "좋은", "괜찮은", "저렴한", "비싼", "최고", "인기",
			"내가", "우리", "사람", "고객", "회원", "가격", "만원", "천원", "정도", "정말", "진짜",
			"그냥", "조금", "많이", "자주", "가끔", "항상", "보통", "최근", "요즘", "오늘", "어제", "내일",
			"지금", "현재", "이번", "다음", "저번", "올해", "작년", "내년", "때문", "위해",
			"통해", "대해", "관련", "관한", "가능", "불가능", "필요", "중요", "유용", "편리", "간단", "복잡",
			"알려줘", "보여줘", "찾아줘", "추천해줘", "말해줘",
			"패턴에", "소비에", "이력에", "기반에", "맞게", "따라",
			"어떻게", "어디서", "언제", "무엇", "누구",
			"있나", "없어", "됐어", "좋아", "싫어",
		},
	}
}
