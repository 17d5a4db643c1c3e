package excavation

import "fmt"

// 任务奖励分值
const (
	rewardPhotos       = 50
	rewardMeasurements = 50
	rewardArtifactDocs = 100
	rewardFieldNotes   = 75
	rewardCoverage     = 150
)

// GenerateQuests 按难度生成会话任务。任务集在会话期间只增不删。
func GenerateQuests(difficulty Difficulty, artifactCount, totalCells int) []Quest {
	photoTarget, measureTarget := 3, 4
	switch difficulty {
	case DifficultyIntermediate:
		photoTarget, measureTarget = 5, 6
	case DifficultyAdvanced:
		photoTarget, measureTarget = 8, 10
	}

	quests := []Quest{
		{
			ID:     "quest_photos",
			Title:  fmt.Sprintf("拍摄 %d 张现场照片", photoTarget),
			Type:   QuestTakePhotos,
			Target: photoTarget,
			Reward: rewardPhotos,
		},
		{
			ID:     "quest_measurements",
			Title:  fmt.Sprintf("记录 %d 组测量数据", measureTarget),
			Type:   QuestRecordMeasurements,
			Target: measureTarget,
			Reward: rewardMeasurements,
		},
	}

	docTarget := (artifactCount + 1) / 2
	if docTarget < 1 {
		docTarget = 1
	}
	quests = append(quests, Quest{
		ID:     "quest_artifact_docs",
		Title:  fmt.Sprintf("为 %d 件文物建立发现记录", docTarget),
		Type:   QuestDocumentArtifacts,
		Target: docTarget,
		Reward: rewardArtifactDocs,
	})

	if difficulty == DifficultyIntermediate || difficulty == DifficultyAdvanced {
		noteTarget := 3
		if difficulty == DifficultyAdvanced {
			noteTarget = 5
		}
		quests = append(quests, Quest{
			ID:     "quest_field_notes",
			Title:  fmt.Sprintf("撰写 %d 篇田野笔记", noteTarget),
			Type:   QuestWriteFieldNotes,
			Target: noteTarget,
			Reward: rewardFieldNotes,
		})
	}

	if difficulty == DifficultyAdvanced {
		coverTarget := (totalCells + 1) / 2
		quests = append(quests, Quest{
			ID:     "quest_coverage",
			Title:  fmt.Sprintf("挖掘 %d 个网格单元", coverTarget),
			Type:   QuestExcavateGrid,
			Target: coverTarget,
			Reward: rewardCoverage,
		})
	}

	return quests
}

// questTypeForEntry 记录类型到任务类型的映射，不匹配返回空串
func questTypeForEntry(e *DocumentationEntry) QuestType {
	switch e.Type {
	case EntryPhoto:
		return QuestTakePhotos
	case EntryMeasurement:
		return QuestRecordMeasurements
	case EntryDiscovery:
		if e.ArtifactID != 0 {
			return QuestDocumentArtifacts
		}
	case EntryNote:
		return QuestWriteFieldNotes
	}
	return ""
}

// advanceQuests 推进指定类型的任务进度，返回本次完成的任务标题与奖励分。
// 已完成的任务不再推进，进度封顶于目标值。
func advanceQuests(s *State, qt QuestType, current int) (completed []string, bonus int) {
	if qt == "" {
		return nil, 0
	}
	for i := range s.Quests {
		q := &s.Quests[i]
		if q.Type != qt || q.Completed {
			continue
		}
		if current >= 0 {
			// 绝对进度（如覆盖率任务按已挖掘单元数）
			q.Current = current
		} else {
			q.Current++
		}
		if q.Current >= q.Target {
			q.Current = q.Target
			q.Completed = true
			completed = append(completed, q.Title)
			bonus += q.Reward
		}
	}
	return completed, bonus
}
