// internal/model/catalog.go
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resource は1つの学習リソース (PDF、動画、問題集など) を表します。
// IDは持たず、カタログ内の位置と説明文からキーを導出して識別します。
type Resource struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ResourceGroup はリソース種別ごとのリソース一覧です (例: "Apostilas", "Videoaulas")
type ResourceGroup struct {
	TypeName  string     `json:"type_name"`
	Resources []Resource `json:"resources"`
}

// Subject は1つの科目とその配下のリソース群を表します
type Subject struct {
	Name   string          `json:"name"`
	Groups []ResourceGroup `json:"groups"`
}

// Stage はスケジュール上の1単位 (元データでは「週」) を表します
type Stage struct {
	Name     string    `json:"name"`
	Subjects []Subject `json:"subjects"`
}

// IsEmpty は科目を1つも持たないステージかどうかを返します。
// 空のステージはスケジュール生成時にスキップされます。
func (s Stage) IsEmpty() bool {
	return len(s.Subjects) == 0
}

// SubjectNames はステージ内の科目名を定義順で返します
func (s Stage) SubjectNames() []string {
	names := make([]string, 0, len(s.Subjects))
	for _, subj := range s.Subjects {
		names = append(names, subj.Name)
	}
	return names
}

// Catalog は読み込み後は不変として扱う学習計画全体です。
// ステージの並び順はスケジュール生成と「最終ステージ」の判定に使われるため、
// JSONオブジェクトのキー順を保持したままデコードする必要があります。
type Catalog struct {
	Stages []Stage `json:"stages"`
}

// NonEmptyStages は科目を持つステージだけを定義順で返します
func (c *Catalog) NonEmptyStages() []Stage {
	stages := make([]Stage, 0, len(c.Stages))
	for _, st := range c.Stages {
		if !st.IsEmpty() {
			stages = append(stages, st)
		}
	}
	return stages
}

// TotalResources はカタログ全体のリソース数を返します
func (c *Catalog) TotalResources() int {
	total := 0
	for _, st := range c.Stages {
		for _, subj := range st.Subjects {
			for _, g := range subj.Groups {
				total += len(g.Resources)
			}
		}
	}
	return total
}

// UnmarshalJSON はネストしたJSONオブジェクト
// (ステージ名 → 科目名 → リソース種別名 → リソース配列) を
// キーの出現順を保持したままデコードします。
// map[string]... にデコードすると順序が失われるため、
// json.Decoder のトークンを直接読み進めています。
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("catalog root: %w", err)
	}

	for dec.More() {
		stageName, err := nextKey(dec)
		if err != nil {
			return err
		}
		stage := Stage{Name: stageName}

		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("stage %q: %w", stageName, err)
		}
		for dec.More() {
			subjectName, err := nextKey(dec)
			if err != nil {
				return err
			}
			subject := Subject{Name: subjectName}

			if err := expectDelim(dec, '{'); err != nil {
				return fmt.Errorf("subject %q: %w", subjectName, err)
			}
			for dec.More() {
				typeName, err := nextKey(dec)
				if err != nil {
					return err
				}
				var resources []Resource
				if err := dec.Decode(&resources); err != nil {
					return fmt.Errorf("resources of %q/%q/%q: %w", stageName, subjectName, typeName, err)
				}
				subject.Groups = append(subject.Groups, ResourceGroup{
					TypeName:  typeName,
					Resources: resources,
				})
			}
			if _, err := dec.Token(); err != nil { // '}' を消費
				return err
			}
			stage.Subjects = append(stage.Subjects, subject)
		}
		if _, err := dec.Token(); err != nil { // '}' を消費
			return err
		}
		c.Stages = append(c.Stages, stage)
	}
	if _, err := dec.Token(); err != nil { // ルートの '}' を消費
		return err
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
