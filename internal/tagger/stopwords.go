package tagger

var chineseStopwords = []string{
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "一个",
	"中", "上", "下", "大", "小", "这", "那", "你", "他", "她", "它", "我们",
	"你们", "他们", "这个", "那个", "这些", "那些", "什么", "怎么", "为什么", "因为",
	"所以", "但是", "虽然", "如果", "然后", "现在", "以后", "以前", "今天", "明天",
	"昨天", "这里", "那里", "哪里", "很", "非常", "太", "真", "好", "坏", "多", "少",
	"来", "去", "到", "从", "向", "对", "关于", "对于", "通过", "根据", "按照", "为了",
}

var englishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can", "could",
	"do", "does", "for", "from", "had", "has", "have", "he", "her", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "may", "more", "most", "must", "no",
	"not", "of", "on", "one", "or", "our", "she", "should", "so", "such", "than",
	"that", "the", "their", "them", "then", "there", "these", "they", "this", "those",
	"to", "too", "up", "very", "was", "we", "were", "what", "when", "where", "which",
	"while", "who", "will", "with", "would", "you", "your",
}

// DefaultStopwords returns the built-in Chinese and English stopword list.
func DefaultStopwords() []string {
	out := make([]string, 0, len(chineseStopwords)+len(englishStopwords))
	out = append(out, chineseStopwords...)
	return append(out, englishStopwords...)
}
