package session

import "math/rand"

// MotivationalQuotes are shown before a session starts
var MotivationalQuotes = []string{
	"每学会一个单词，你就离目标更近一步！💪",
	"坚持就是胜利，今天也要加油哦！🌟",
	"相信自己，你可以掌握这些单词！✨",
	"知识的积累从现在开始！📚",
	"每天进步一点点，成功就在眼前！🎯",
	"学习让你变得更强大！💫",
	"今天的努力是明天的收获！🌱",
	"单词是打开世界大门的钥匙！🔑",
}

// SuccessMessages are shown after a correct answer
var SuccessMessages = []string{
	"太棒了！继续保持这个势头！🎉",
	"你做得真不错！继续努力！⭐",
	"完美！你的进步很明显！👏",
	"优秀！你越来越熟练了！🚀",
	"很棒！坚持下去就是胜利！💯",
	"出色！你正在变得更好！🌈",
	"精彩！你的努力得到了回报！🏆",
	"了不起！你的词汇量在增长！📈",
}

// EncouragementMessages are shown after a wrong answer
var EncouragementMessages = []string{
	"不要灰心，下次一定可以！💪",
	"学习需要时间，慢慢来！🌱",
	"每次尝试都是进步！📈",
	"相信自己，你一定可以的！✨",
	"失败是成功之母，继续加油！🌟",
	"练习让你变得更强！💫",
	"坚持就是胜利！🎯",
	"你的努力终会有回报！🏆",
}

// Pick returns a random message from messages
func Pick(messages []string, rng *rand.Rand) string {
	if len(messages) == 0 {
		return ""
	}
	if rng != nil {
		return messages[rng.Intn(len(messages))]
	}
	return messages[rand.Intn(len(messages))]
}
