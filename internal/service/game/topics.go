package game

import "sort"

const TOPIC_RANDOM = "random"

type Topic struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Words    []string `json:"-"`
}

var topics = map[string]Topic{
	"food": {
		Category: "food",
		Name:     "음식",
		Words:    []string{"사과", "바나나", "포도", "피자", "치킨", "햄버거", "초밥", "라면", "파스타", "도넛", "삼겹살", "떡볶이", "마라탕"},
	},
	"animal": {
		Category: "animal",
		Name:     "동물",
		Words:    []string{"코끼리", "기린", "펭귄", "호랑이", "사자", "토끼", "강아지", "고양이", "햄스터", "판다", "악어", "독수리", "공룡"},
	},
	"object": {
		Category: "object",
		Name:     "사물",
		Words:    []string{"컴퓨터", "스마트폰", "텔레비전", "냉장고", "세탁기", "의자", "책상", "연필", "지우개", "안경", "시계", "침대", "거울"},
	},
	"sports": {
		Category: "sports",
		Name:     "스포츠",
		Words:    []string{"축구", "농구", "야구", "배구", "수영", "테니스", "골프", "볼링", "양궁", "태권도", "마라톤", "스케이트", "펜싱"},
	},
	"place": {
		Category: "place",
		Name:     "장소",
		Words:    []string{"학교", "병원", "경찰서", "공원", "바다", "산", "서울", "미국", "공항", "도서관", "영화관", "백화점", "박물관"},
	},
}

// Topics 按分类名排序返回所有题库
func Topics() []Topic {
	list := make([]Topic, 0, len(topics))
	for _, t := range topics {
		list = append(list, t)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Category < list[j].Category
	})

	return list
}

func IsKnownTopic(category string) bool {
	if category == TOPIC_RANDOM {
		return true
	}

	_, ok := topics[category]
	return ok
}

// pickWord 解析 random 分类并抽取一个词
func pickWord(category string, rng Rand) (Topic, string) {
	topic, ok := topics[category]
	if !ok {
		all := Topics()
		topic = all[rng.IntN(len(all))]
	}

	return topic, topic.Words[rng.IntN(len(topic.Words))]
}
