package curriculum

// 每个操作都自顶向下重建一棵新树：外层 slice 永远是新分配的，命中路径上的
// Section/Item 被替换，未命中的分支原样复用。调用方持有的旧树绝不会被原地修改，
// 因此任意两次操作之间可以安全地做引用比较或并发读取旧版本。
//
// 所有操作按 id 寻址，id 不存在时原样返回一棵等价的新树（no-op）。

// AddSection appends a new empty section with a generated id.
func AddSection(sections []Section) []Section {
	out := cloneSections(sections)
	out = append(out, Section{
		ID:        NewID(),
		Title:     DefaultSectionTitle,
		Published: false,
		Items:     []Item{},
	})
	return out
}

// EditSection replaces the title of the matching section.
func EditSection(sections []Section, sectionID, title string) []Section {
	out := cloneSections(sections)
	for i := range out {
		if out[i].ID == sectionID {
			out[i].Title = title
		}
	}
	return out
}

// DeleteSection removes the matching section.
func DeleteSection(sections []Section, sectionID string) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.ID == sectionID {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AddItem appends an item of the given kind to the matching section.
// Quiz items receive a generated quiz identifier; lectures do not.
func AddItem(sections []Section, sectionID string, kind ItemKind) []Section {
	return mapSection(sections, sectionID, func(s Section) Section {
		item := Item{
			ID:       NewID(),
			Kind:     kind,
			Title:    DefaultLectureTitle,
			Expanded: true,
		}
		if kind == KindQuiz {
			item.Title = DefaultQuizTitle
			item.QuizID = NewID()
			item.Questions = []Question{}
		} else {
			item.Documents = []Document{}
		}
		s.Items = append(cloneItems(s.Items), item)
		return s
	})
}

// EditItem replaces the title of the matching item.
func EditItem(sections []Section, sectionID, itemID, title string) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		it.Title = title
		return it
	})
}

// DeleteItem removes the matching item from its section.
func DeleteItem(sections []Section, sectionID, itemID string) []Section {
	return mapSection(sections, sectionID, func(s Section) Section {
		items := make([]Item, 0, len(s.Items))
		for _, it := range s.Items {
			if it.ID == itemID {
				continue
			}
			items = append(items, it)
		}
		s.Items = items
		return s
	})
}

// ToggleExpand flips the expanded flag of the matching item.
func ToggleExpand(sections []Section, sectionID, itemID string) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		it.Expanded = !it.Expanded
		return it
	})
}

// SetItemVideo binds an uploaded video to the matching lecture item and
// clears any pending local file reference.
func SetItemVideo(sections []Section, sectionID, itemID string, video VideoRef) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		v := video
		it.Video = &v
		it.PendingVideoPath = ""
		it.PendingVideoDuration = 0
		return it
	})
}

// SetItemPendingVideo records a not-yet-uploaded local video file on the item,
// together with its probed duration in seconds.
func SetItemPendingVideo(sections []Section, sectionID, itemID, localPath string, duration float64) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		it.PendingVideoPath = localPath
		it.PendingVideoDuration = duration
		return it
	})
}

// AddItemDocument appends a document to the matching lecture item.
func AddItemDocument(sections []Section, sectionID, itemID string, doc Document) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		it.Documents = append(cloneDocuments(it.Documents), doc)
		return it
	})
}

// AddQuestion appends a question with two blank answers to the matching quiz
// item and forces the item expanded.
func AddQuestion(sections []Section, sectionID, itemID string) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		q := Question{
			ID:         NewID(),
			Type:       QuestionMCQ,
			Difficulty: DifficultyEasy,
			Answers: []Answer{
				{ID: NewID()},
				{ID: NewID()},
			},
		}
		it.Questions = append(cloneQuestions(it.Questions), q)
		it.Expanded = true
		return it
	})
}

// UpdateQuestion replaces the matching question wholesale. The caller is
// responsible for producing a valid merged question (see SetAnswerCorrect).
func UpdateQuestion(sections []Section, sectionID, itemID, questionID string, newQuestion Question) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		qs := cloneQuestions(it.Questions)
		for i := range qs {
			if qs[i].ID == questionID {
				newQuestion.ID = questionID // id 不可变
				qs[i] = newQuestion
			}
		}
		it.Questions = qs
		return it
	})
}

// DeleteQuestion removes the matching question.
func DeleteQuestion(sections []Section, sectionID, itemID, questionID string) []Section {
	return mapItem(sections, sectionID, itemID, func(it Item) Item {
		qs := make([]Question, 0, len(it.Questions))
		for _, q := range it.Questions {
			if q.ID == questionID {
				continue
			}
			qs = append(qs, q)
		}
		it.Questions = qs
		return it
	})
}

// SetAnswerCorrect returns a copy of q with the answer's correctness flag set.
// 单选/判断题最多一个正确答案：选中新答案会清掉旧的。多选题各答案独立。
func SetAnswerCorrect(q Question, answerID string, correct bool) Question {
	answers := cloneAnswers(q.Answers)
	for i := range answers {
		if answers[i].ID == answerID {
			answers[i].Correct = correct
		} else if correct && q.Type != QuestionMulti {
			answers[i].Correct = false
		}
	}
	q.Answers = answers
	return q
}

// FindItem returns the matching item, or false when either id is unknown.
func FindItem(sections []Section, sectionID, itemID string) (Item, bool) {
	for _, s := range sections {
		if s.ID != sectionID {
			continue
		}
		for _, it := range s.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return Item{}, false
}

func mapSection(sections []Section, sectionID string, fn func(Section) Section) []Section {
	out := cloneSections(sections)
	for i := range out {
		if out[i].ID == sectionID {
			out[i] = fn(out[i])
		}
	}
	return out
}

func mapItem(sections []Section, sectionID, itemID string, fn func(Item) Item) []Section {
	return mapSection(sections, sectionID, func(s Section) Section {
		items := cloneItems(s.Items)
		for i := range items {
			if items[i].ID == itemID {
				items[i] = fn(items[i])
			}
		}
		s.Items = items
		return s
	})
}

func cloneSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func cloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

func cloneAnswers(answers []Answer) []Answer {
	out := make([]Answer, len(answers))
	copy(out, answers)
	return out
}

func cloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	return out
}
