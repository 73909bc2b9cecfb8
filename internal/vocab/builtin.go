package vocab

func en(headword, pronunciation, meaning string) Entry {
	return Entry{Headword: headword, Pronunciation: pronunciation, Meanings: map[string]string{"en": meaning}}
}

var builtinLevels = []LevelEntries{
	{Level: "HSK1", Entries: []Entry{
		en("我", "wǒ", "I; me"),
		en("你", "nǐ", "you"),
		en("他", "tā", "he"),
		en("她", "tā", "she"),
		en("我们", "wǒ men", "we; us"),
		en("喜欢", "xǐ huan", "to like"),
		en("喝", "hē", "to drink"),
		en("吃", "chī", "to eat"),
		en("看", "kàn", "to watch / read"),
		en("书", "shū", "book"),
	}},
	{Level: "HSK2", Entries: []Entry{
		en("颜色", "yán sè", "color"),
		en("机场", "jī chǎng", "airport"),
		en("旅游", "lǚ yóu", "to travel"),
		en("鱼", "yú", "fish"),
		en("牛奶", "niú nǎi", "milk"),
	}},
	{Level: "HSK3", Entries: []Entry{
		en("环境", "huán jìng", "environment"),
		en("认真", "rèn zhēn", "serious; earnest"),
		en("解决", "jiě jué", "to solve"),
		en("盘子", "pán zi", "plate"),
		en("电梯", "diàn tī", "elevator"),
	}},
}

// Builtin returns the bundled HSK1–HSK3 starter bank.
func Builtin() *Bank {
	b, err := NewBank(builtinLevels)
	if err != nil {
		panic("vocab: builtin bank is invalid: " + err.Error())
	}
	return b
}
