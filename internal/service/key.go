// internal/service/key.go
package service

import (
	"fmt"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
)

// DeriveResourceKey はリソースの識別キーを導出します。
// カタログのリソースはIDを持たないため、所属 (ステージ・科目・種別) と
// 種別内の1始まりの位置、説明文の先頭20文字からキーを組み立てます。
//
// 純粋関数で、同じ入力には常に同じキーを返します (プロセス再起動を
// またいでも安定)。説明文の先頭20文字が同じリソース同士は衝突しますが、
// これは過去のバックアップとの互換性のため意図的に維持している制約です。
// 種別内の並び順が変わると既存のキーは別のリソースを指すようになります
// (既知の制約であり、黙って補正はしません)。
func DeriveResourceKey(stageName, subjectName, resourceTypeName string, position int, description string) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s",
		stageName, subjectName, resourceTypeName, position,
		truncateRunes(description, config.ResourceKeyDescriptionLen))
}

// truncateRunes は文字列を先頭 n 文字 (ルーン単位) に切り詰めます。
// ポルトガル語のアクセント付き文字をバイト単位で切ると壊れるため、
// ルーン単位で数えます。
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
