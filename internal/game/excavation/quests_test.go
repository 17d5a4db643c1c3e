package excavation

import (
	"math/rand"
	"testing"
)

func questByType(quests []Quest, qt QuestType) *Quest {
	for i := range quests {
		if quests[i].Type == qt {
			return &quests[i]
		}
	}
	return nil
}

func TestGenerateQuests(t *testing.T) {
	tests := []struct {
		name          string
		difficulty    Difficulty
		artifactCount int
		totalCells    int
		wantCount     int
		photoTarget   int
		measureTarget int
	}{
		{"初级", DifficultyBeginner, 3, 16, 3, 3, 4},
		{"中级", DifficultyIntermediate, 4, 25, 4, 5, 6},
		{"高级", DifficultyAdvanced, 5, 36, 5, 8, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quests := GenerateQuests(tt.difficulty, tt.artifactCount, tt.totalCells)
			if len(quests) != tt.wantCount {
				t.Fatalf("期望 %d 个任务，实际 %d 个", tt.wantCount, len(quests))
			}
			if q := questByType(quests, QuestTakePhotos); q == nil || q.Target != tt.photoTarget {
				t.Errorf("照片任务目标应为 %d: %+v", tt.photoTarget, q)
			}
			if q := questByType(quests, QuestRecordMeasurements); q == nil || q.Target != tt.measureTarget {
				t.Errorf("测量任务目标应为 %d: %+v", tt.measureTarget, q)
			}
		})
	}
}

func TestGenerateQuestsArtifactDocTarget(t *testing.T) {
	// 目标为文物数的一半向上取整，下限1
	tests := []struct {
		artifacts int
		want      int
	}{
		{0, 1},
		{1, 1},
		{4, 2},
		{5, 3},
	}
	for _, tt := range tests {
		quests := GenerateQuests(DifficultyBeginner, tt.artifacts, 16)
		q := questByType(quests, QuestDocumentArtifacts)
		if q == nil || q.Target != tt.want {
			t.Errorf("文物数 %d 时记录任务目标应为 %d: %+v", tt.artifacts, tt.want, q)
		}
	}
}

func TestGenerateQuestsCoverage(t *testing.T) {
	quests := GenerateQuests(DifficultyAdvanced, 3, 25)
	q := questByType(quests, QuestExcavateGrid)
	if q == nil {
		t.Fatal("高级难度应包含覆盖率任务")
	}
	if q.Target != 13 {
		t.Errorf("25格覆盖率任务目标应为13，实际 %d", q.Target)
	}
	if q.Reward != rewardCoverage {
		t.Errorf("覆盖率任务奖励应为 %d，实际 %d", rewardCoverage, q.Reward)
	}

	if questByType(GenerateQuests(DifficultyBeginner, 3, 25), QuestExcavateGrid) != nil {
		t.Error("初级难度不应有覆盖率任务")
	}
	if questByType(GenerateQuests(DifficultyBeginner, 3, 25), QuestWriteFieldNotes) != nil {
		t.Error("初级难度不应有田野笔记任务")
	}
}

func TestQuestProgressViaDocumentation(t *testing.T) {
	e := newTestEngine(GameplayConfig{QuestsEnabled: true, DefaultTool: "trowel"})
	s := newTestState(testEnv)
	s.Quests = GenerateQuests(DifficultyBeginner, 1, len(s.Grid))

	// 初级照片任务目标3，第三张完成并发放奖励
	for i := 0; i < 2; i++ {
		outcome, err := e.AddDocumentation(s, EntryPhoto, 0, 0, "照片", 0)
		if err != nil {
			t.Fatalf("添加记录失败: %v", err)
		}
		if len(outcome.QuestsCompleted) != 0 {
			t.Error("任务未达标不应完成")
		}
	}
	outcome, err := e.AddDocumentation(s, EntryPhoto, 0, 0, "照片", 0)
	if err != nil {
		t.Fatalf("添加记录失败: %v", err)
	}
	if len(outcome.QuestsCompleted) != 1 || outcome.BonusScore != rewardPhotos {
		t.Errorf("第三张照片应完成任务并奖励 %d 分: %+v", rewardPhotos, outcome)
	}
	if s.Score != rewardPhotos {
		t.Errorf("任务奖励应计入分数，实际 %d", s.Score)
	}

	// 完成后继续拍照不再推进，进度封顶
	outcome, _ = e.AddDocumentation(s, EntryPhoto, 0, 0, "照片", 0)
	if len(outcome.QuestsCompleted) != 0 || outcome.BonusScore != 0 {
		t.Error("已完成任务不应重复发放奖励")
	}
	q := questByType(s.Quests, QuestTakePhotos)
	if q.Current != q.Target {
		t.Errorf("任务进度应封顶于目标值 %d，实际 %d", q.Target, q.Current)
	}
}

func TestQuestProgressArtifactDocs(t *testing.T) {
	e := newTestEngine(GameplayConfig{QuestsEnabled: true, DefaultTool: "trowel"})
	s := newTestState(testEnv)
	s.Quests = GenerateQuests(DifficultyBeginner, 1, len(s.Grid))

	// 不带文物ID的发现记录不计入文物记录任务
	if _, err := e.AddDocumentation(s, EntryDiscovery, 0, 0, "疑似遗迹", 0); err != nil {
		t.Fatalf("添加记录失败: %v", err)
	}
	q := questByType(s.Quests, QuestDocumentArtifacts)
	if q.Current != 0 {
		t.Errorf("无文物ID的发现记录不应推进任务，实际进度 %d", q.Current)
	}

	outcome, err := e.AddDocumentation(s, EntryDiscovery, 1, 1, "青铜镜出土", 1)
	if err != nil {
		t.Fatalf("添加记录失败: %v", err)
	}
	if len(outcome.QuestsCompleted) != 1 || outcome.BonusScore != rewardArtifactDocs {
		t.Errorf("文物记录任务应完成: %+v", outcome)
	}
}

func TestQuestCoverageProgress(t *testing.T) {
	e := newTestEngine(GameplayConfig{QuestsEnabled: true, DefaultTool: "trowel"})
	site := SiteSpec{
		ID: 1, GridWidth: 2, GridHeight: 2,
		Environment: Environment{Visibility: 100, CurrentStrength: 0},
	}
	s, err := e.NewSession(site, DifficultyAdvanced, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}

	// 能见度100无水流，手铲单次进度0.108，3次后深度0.324
	dig := func(x, y int) *ActionOutcome {
		var last *ActionOutcome
		for i := 0; i < 3; i++ {
			last, err = e.ApplyAction(s, x, y, "trowel")
			if err != nil {
				t.Fatalf("挖掘失败: %v", err)
			}
		}
		return last
	}

	dig(0, 0)
	q := questByType(s.Quests, QuestExcavateGrid)
	if q.Current != 1 {
		t.Errorf("覆盖率任务进度应为1，实际 %d", q.Current)
	}

	// 4格目标为2，挖第二格时完成
	outcome := dig(1, 0)
	q = questByType(s.Quests, QuestExcavateGrid)
	if !q.Completed {
		t.Error("挖掘2格后覆盖率任务应完成")
	}
	found := false
	for _, title := range outcome.QuestsCompleted {
		if title == q.Title {
			found = true
		}
	}
	if !found {
		t.Errorf("完成列表应包含覆盖率任务: %+v", outcome.QuestsCompleted)
	}
}

func TestQuestsDisabled(t *testing.T) {
	e := newTestEngine(GameplayConfig{QuestsEnabled: false, DefaultTool: "trowel"})
	site := SiteSpec{
		ID: 1, GridWidth: 3, GridHeight: 3,
		Environment: Environment{Visibility: 80, CurrentStrength: 2},
	}
	s, err := e.NewSession(site, DifficultyBeginner, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	if len(s.Quests) != 0 {
		t.Errorf("关闭任务后不应生成任务，实际 %d 个", len(s.Quests))
	}

	outcome, err := e.AddDocumentation(s, EntryPhoto, 0, 0, "照片", 0)
	if err != nil {
		t.Fatalf("添加记录失败: %v", err)
	}
	if outcome.BonusScore != 0 || len(outcome.QuestsCompleted) != 0 {
		t.Errorf("关闭任务后不应有任务奖励: %+v", outcome)
	}
}
